package cmd

import (
	"context"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials/stscreds"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/k0kubun/pp/v3"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "launch-template-patcher",
	Short: "MGN launch template patcher",
	Long: `A CLI application to patch EC2 launch templates and launch settings of
servers replicating in AWS Application Migration Service (MGN).

It applies per-server overrides from a CSV file, or propagates selected launch
template fields from one source server or template to many targets.
	`,
}

var debug bool
var roleARN string

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	// DisableDefaultCmd prevents Cobra from creating a default 'completion' command
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	// SilenceUsage is an option to silence usage when an error occurs.
	rootCmd.SilenceUsage = true

	// Persistent flags which will be global for the application.
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Turn on debug logging")
	rootCmd.PersistentFlags().StringVar(&roleARN, "role-arn", "", "IAM role ARN to be assumed")

	pp.PrintMapTypes = false
	pp.Default.SetExportedOnly(true)
	pp.Default.SetColoringEnabled(term.IsTerminal(int(os.Stdout.Fd())))
}

func initAWS() (aws.Config, error) {
	// Using the SDK's default configuration, loading additional config
	// and credentials values from the environment variables, shared
	// credentials, and shared configuration files
	var clientLogMode aws.ClientLogMode
	if debug {
		clientLogMode = aws.LogRequestWithBody | aws.LogResponseWithBody
	} else {
		clientLogMode = 0
	}

	cfg, err := config.LoadDefaultConfig(
		context.TODO(),
		config.WithClientLogMode(clientLogMode),
	)
	if err != nil {
		return cfg, err
	}

	if roleARN != "" {
		cfg.Credentials = aws.NewCredentialsCache(
			stscreds.NewAssumeRoleProvider(sts.NewFromConfig(cfg), roleARN),
		)
	}
	return cfg, nil
}
