package main

import (
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/apiqa/webhook-contract-tests/config"
	"github.com/apiqa/webhook-contract-tests/contracttests"
	"github.com/apiqa/webhook-contract-tests/framework"
	"github.com/apiqa/webhook-contract-tests/mockcapture"
	"github.com/apiqa/webhook-contract-tests/rest"
	"github.com/apiqa/webhook-contract-tests/transport"
	"github.com/apiqa/webhook-contract-tests/webhook"
)

// The target API expects its key in this header.
const apiTokenHeader = "x-api-key"

const selfCheckToken = "selfcheck"

func main() {
	var params commandParams
	if !params.Read(os.Args) {
		os.Exit(1)
	}

	logger, err := buildLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "could not initialize logger: %s\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	var cfg *config.Config
	if params.selfCheck {
		capture := mockcapture.NewServer()
		baseURL, err := capture.Start("127.0.0.1:0")
		if err != nil {
			fmt.Fprintf(os.Stderr, "could not start embedded capture service: %s\n", err)
			os.Exit(1)
		}
		defer capture.Close()
		logger.Info("running self-check against embedded capture service", zap.String("url", baseURL))
		cfg = selfCheckConfig(baseURL)
		// The embedded service has no users API to test against.
		_ = params.filters.MustNotMatch.Set("^users API")
	} else {
		cfg, err = config.Load(params.configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "configuration error: %s\n", err)
			os.Exit(1)
		}
	}

	apiTransport := transport.New(cfg.API.BaseURL,
		transport.WithAuthToken(apiTokenHeader, cfg.API.Token),
		transport.WithTimeout(cfg.API.Timeout.Duration()),
		transport.WithLogger(logger),
	)

	var webhookClient *webhook.Client
	if cfg.HasWebhookTarget() {
		webhookTransport := transport.New(cfg.Webhook.APIBaseURL,
			transport.WithTimeout(cfg.Webhook.Timeout.Duration()),
			transport.WithLogger(logger),
		)
		webhookClient, err = webhook.New(cfg.Webhook, webhookTransport)
		if err != nil {
			fmt.Fprintf(os.Stderr, "configuration error: %s\n", err)
			os.Exit(1)
		}
	}

	env := contracttests.Env{
		Config:  cfg,
		REST:    rest.New(apiTransport),
		Webhook: webhookClient,
	}

	framework.PrintFilterDescription(params.filters)
	fmt.Println("Running test suite")

	testLogger := framework.ConsoleTestLogger{
		DebugOutputOnFailure: params.debug || params.debugAll,
		DebugOutputOnSuccess: params.debugAll,
	}

	results := contracttests.RunTestSuite(env, params.filters.AsFilter, &testLogger)

	fmt.Println()
	framework.PrintResults(os.Stdout, results)
	if !results.OK() {
		fmt.Printf("\nTo rerun only the failed tests:\n  %s\n", rerunCommand(os.Args[0], params, results))
		os.Exit(1)
	}
}

// buildLogger returns a production JSON logger on stderr with RFC 3339
// timestamps.
func buildLogger() (*zap.Logger, error) {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout(time.RFC3339)
	zapConfig := zap.Config{
		Level:             zap.NewAtomicLevelAt(zap.InfoLevel),
		DisableStacktrace: true,
		Encoding:          "json",
		EncoderConfig:     encoderConfig,
		OutputPaths:       []string{"stderr"},
		ErrorOutputPaths:  []string{"stderr"},
	}
	return zapConfig.Build()
}

// selfCheckConfig points the webhook workflow at the embedded capture
// service. Short polling intervals keep the self-check fast; the capture is
// local and effectively immediate.
func selfCheckConfig(captureBaseURL string) *config.Config {
	cfg := &config.Config{
		API: config.APIConfig{
			BaseURL: captureBaseURL,
			Token:   selfCheckToken,
		},
		Webhook: config.WebhookConfig{
			TargetURL:  captureBaseURL + "/" + selfCheckToken,
			APIBaseURL: captureBaseURL,
			PollDelay:  config.Duration(100 * time.Millisecond),
		},
	}
	cfg.FillDefaults()
	return cfg
}
