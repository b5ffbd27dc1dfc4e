package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"

	"AltCredit/internal/domain/models"
	"AltCredit/internal/services/explain"
	"AltCredit/internal/services/fairness"
	"AltCredit/internal/services/scoring"
	"AltCredit/internal/usecase"
	xhttp "AltCredit/pkg/http"
	applogger "AltCredit/pkg/logger"
)

const (
	verboseFlagName   = "verbose"
	fileFlagName      = "file"
	seedFlagName      = "seed"
	jitterFlagName    = "jitter"
	amplitudeFlagName = "amplitude"
	serverFlagName    = "server"

	defaultAmplitude = 5.0
	remoteTimeout    = 30 * time.Second
	remoteRetries    = 2
)

// applicantFlags are shared by every command that scores one applicant.
func applicantFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     fileFlagName,
			Aliases:  []string{"f"},
			Usage:    "Applicant file (.json, .yaml or .yml), - for stdin",
			Required: true,
		},
		&cli.BoolFlag{
			Name:  jitterFlagName,
			Usage: "Perturb the blended score (optional, default: false)",
		},
		&cli.Uint64Flag{
			Name:  seedFlagName,
			Usage: "Jitter seed, same seed replays the same offsets (optional, default: time based)",
		},
		&cli.FloatFlag{
			Name:  amplitudeFlagName,
			Usage: "Jitter amplitude in score points",
			Value: defaultAmplitude,
		},
		&cli.StringFlag{
			Name:  serverFlagName,
			Usage: "Score against a running service at this base URL instead of locally (optional)",
		},
	}
}

func scoreCommand() *cli.Command {
	return &cli.Command{
		Name:  "score",
		Usage: "Calculate the credit score of one applicant",
		Flags: applicantFlags(),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return runApplicant(ctx, cmd, "/api/credit-scoring/calculate",
				func(uc *usecase.CreditScoring, req *models.ApplicantRequest) (interface{}, error) {
					return uc.Calculate(ctx, req)
				})
		},
	}
}

func explainCommand() *cli.Command {
	return &cli.Command{
		Name:  "explain",
		Usage: "Explain the factors behind one applicant's score",
		Flags: applicantFlags(),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return runApplicant(ctx, cmd, "/api/credit-scoring/explain",
				func(uc *usecase.CreditScoring, req *models.ApplicantRequest) (interface{}, error) {
					return uc.Explain(ctx, req)
				})
		},
	}
}

func biasCommand() *cli.Command {
	return &cli.Command{
		Name:  "bias",
		Usage: "Generate the bias and compliance report for one applicant",
		Flags: applicantFlags(),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return runApplicant(ctx, cmd, "/api/credit-scoring/bias-report",
				func(uc *usecase.CreditScoring, req *models.ApplicantRequest) (interface{}, error) {
					return uc.BiasReport(ctx, req)
				})
		},
	}
}

func modelInfoCommand() *cli.Command {
	return &cli.Command{
		Name:  "model-info",
		Usage: "Print the model descriptors",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: serverFlagName, Usage: "Base URL of a running service (optional)"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if base := cmd.String(serverFlagName); base != "" {
				data, err := remote(ctx, xhttp.MethodGet, base, "/api/credit-scoring/model-info", nil)
				if err != nil {
					return err
				}
				return printRaw(cmd.Root().Writer, data)
			}
			uc, err := localScoring(cmd)
			if err != nil {
				return err
			}
			return printJSON(cmd.Root().Writer, uc.ModelInfo())
		},
	}
}

type localAction func(uc *usecase.CreditScoring, req *models.ApplicantRequest) (interface{}, error)

func runApplicant(ctx context.Context, cmd *cli.Command, path string, local localAction) error {
	req, err := readApplicant(cmd.String(fileFlagName), os.Stdin)
	if err != nil {
		return err
	}

	if base := cmd.String(serverFlagName); base != "" {
		data, err := remote(ctx, xhttp.MethodPost, base, path, req)
		if err != nil {
			return err
		}
		return printRaw(cmd.Root().Writer, data)
	}

	uc, err := localScoring(cmd)
	if err != nil {
		return err
	}
	out, err := local(uc, req)
	if err != nil {
		return describe(err)
	}
	return printJSON(cmd.Root().Writer, out)
}

// localScoring assembles the in-process pipeline without infrastructure.
func localScoring(cmd *cli.Command) (*usecase.CreditScoring, error) {
	model := scoring.DefaultModel()
	if err := model.Validate(); err != nil {
		return nil, fmt.Errorf("model config: %w", err)
	}

	var j scoring.Jitter = scoring.NoJitter{}
	if cmd.Bool(jitterFlagName) {
		seed := cmd.Uint64(seedFlagName)
		if seed == 0 {
			seed = uint64(time.Now().UnixNano())
		}
		amp := cmd.Float(amplitudeFlagName)
		if amp < 0 {
			return nil, fmt.Errorf("--%s cannot be negative", amplitudeFlagName)
		}
		j = scoring.NewSeededJitter(seed, amp)
	}

	log := applogger.Nop()
	if cmd.Root().Bool(verboseFlagName) {
		log = applogger.NewWriter(cmd.Root().ErrWriter, "debug")
	}

	return usecase.NewCreditScoring(
		scoring.NewScorer(scoring.WithModel(model), scoring.WithJitter(j)),
		explain.NewEngine(model),
		fairness.NewAnalyzer(),
		model,
		usecase.WithLogger(log),
	), nil
}

// readApplicant decodes an applicant from JSON or YAML, picked by extension.
// "-" reads JSON from stdin.
func readApplicant(path string, stdin io.Reader) (*models.ApplicantRequest, error) {
	var (
		b   []byte
		err error
	)
	if path == "-" {
		b, err = io.ReadAll(stdin)
	} else {
		b, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read applicant: %w", err)
	}

	var req models.ApplicantRequest
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, &req)
	default:
		err = json.Unmarshal(b, &req)
	}
	if err != nil {
		return nil, fmt.Errorf("decode applicant %s: %w", path, err)
	}
	return &req, nil
}

func remote(ctx context.Context, method, base, path string, body interface{}) (json.RawMessage, error) {
	client := xhttp.NewClient(base,
		xhttp.WithTimeout(remoteTimeout),
		xhttp.WithRetries(remoteRetries, 0),
	)

	var data json.RawMessage
	if err := client.Do(ctx, method, path, body, &data); err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	return data, nil
}

// describe flattens field errors into one readable line.
func describe(err error) error {
	var ve *models.ValidationError
	if !errors.As(err, &ve) {
		return err
	}
	return fmt.Errorf("invalid applicant: %s", strings.Join(ve.Messages(), "; "))
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printRaw(w io.Writer, data json.RawMessage) error {
	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return printJSON(w, v)
}
