package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/iwvelando/loan-simulator/internal/config"
	"github.com/iwvelando/loan-simulator/internal/simulation"
	"github.com/iwvelando/loan-simulator/pkg/constants"
	"github.com/iwvelando/loan-simulator/pkg/format"
	"github.com/iwvelando/loan-simulator/pkg/output"
	"github.com/iwvelando/loan-simulator/pkg/validation"
	"go.uber.org/zap"
)

func main() {
	// Process command line flags first to get config location
	flag.String("config", constants.DefaultConfigFile, "path to configuration file")
	amount := flag.Float64("amount", 0, "requested loan amount")
	term := flag.Int("term", 12, "loan term in months")
	product := flag.String("product", string(simulation.PersonalLoan), "product type: personalLoan, homeLoan, vehicleLoan, businessLoan")
	income := flag.Float64("income", 0, "monthly income")
	otherIncome := flag.Float64("other-income", 0, "other monthly income")
	insurance := flag.Bool("insurance", false, "include credit insurance")
	currency := flag.String("currency", "", "currency code override")
	startDate := flag.String("start-date", "", "loan start date (YYYY-MM-DD), defaults to today")
	outputFormatFlag := flag.String("output-format", "", "type of output override: pretty, csv")
	logLevel := flag.String("log-level", "", "log level override (debug, info, warn, error)")
	printConfig := flag.Bool("print-config", false, "print the effective configuration as YAML and exit")
	flag.Parse()

	// Load the config file to get logging configuration
	configPath := config.ResolvePath(flag.CommandLine, "config")
	conf, err := config.LoadConfiguration(configPath)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to load configuration at %s\", \"error\": \"%v\"}\n", configPath, err)
		os.Exit(1)
	}

	// Initialize logging based on config and CLI override
	logger, err := config.NewLogger(conf.Logging, *logLevel)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to initialize logger\", \"error\": \"%v\"}\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	if err := conf.Validate(); err != nil {
		logger.Fatal("invalid configuration",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}

	if *printConfig {
		data, err := conf.Marshal()
		if err != nil {
			logger.Fatal("failed to render configuration",
				zap.String("op", "main"),
				zap.Error(err),
			)
		}
		if _, err := os.Stdout.Write(data); err != nil {
			logger.Fatal("failed to write configuration",
				zap.String("op", "main"),
				zap.Error(err),
			)
		}
		return
	}

	// Determine output format (CLI override takes precedence over config)
	outputFormat := conf.Output.Format
	if *outputFormatFlag != "" {
		outputFormat = *outputFormatFlag
	}
	if outputFormat == "" {
		outputFormat = constants.OutputFormatPretty
	}

	err = validation.ValidateOutputFormat(outputFormat)
	if err != nil {
		logger.Fatal(err.Error(),
			zap.String("op", "main"),
		)
	}

	// Validate configuration and display any warnings
	warnings := conf.ValidateConfiguration()
	for _, warning := range warnings {
		logger.Warn("Configuration warning: "+warning,
			zap.String("op", "main"),
		)
	}

	localizer, err := format.NewLocalizer(conf.Output.Locale)
	if err != nil {
		logger.Fatal("failed to initialize number formatting",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}

	builder := simulation.NewBuilder(logger, conf.SimulationPolicy())
	summary, err := builder.Build(simulation.Request{
		MonthlyIncome:    *income,
		OtherIncome:      *otherIncome,
		RequestedAmount:  *amount,
		ProductType:      *product,
		Term:             *term,
		IncludeInsurance: *insurance,
		Currency:         *currency,
		StartDate:        *startDate,
	})
	if err != nil {
		logger.Fatal("failed to compute simulation",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}

	// Handle output.
	switch outputFormat {
	case constants.OutputFormatPretty:
		err = output.PrettyFormat(os.Stdout, summary, localizer)
	case constants.OutputFormatCSV:
		err = output.CsvFormat(os.Stdout, summary)
	}
	if err != nil {
		logger.Fatal("failed to write output",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}
}
