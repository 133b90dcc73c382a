package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/spf13/cobra"
)

var (
	// Default values may be set at compile time.
	version          = "0.1.0"
	buildDate        = "2021-03-01T00:00+0000"
	osArch           = "linux"
	stackDumpOnPanic bool
)

var rootCmd = &cobra.Command{
	Use:   "rp",
	Short: "Replicate an append-only table into Redshift or Snowflake via S3",
	Long: `
replipipe copies an append-only source table (MySQL/Aurora, SQL Server or Netezza)
into a Redshift or Snowflake table through CSV objects staged in S3.

The first run bootstraps the target by extracting id ranges in parallel and rebuilding
the table in one transaction. Later runs load only the rows above the highest id already
in the target. No state is kept outside the target table itself, so a run can be
repeated as often as you like.`,
}

func init() {
	cobra.EnableCommandSorting = false
	rootCmd.PersistentFlags().BoolVar(&stackDumpOnPanic, "print-stack", false, "Print a stack dump if there is a panic")
	_ = rootCmd.PersistentFlags().MarkHidden("print-stack")
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if twelveFactorMode { // if we are running based on environment variables...
		if lambdaMode {
			lambda.Start(func(ctx context.Context) error { return execute12FactorMode(ctx, twelveFactorActions) })
			return
		}
		ctx, stop := signalContext()
		defer stop()
		if err := execute12FactorMode(ctx, twelveFactorActions); err != nil {
			// execute12FactorMode logs the error.
			stop()
			os.Exit(1)
		}
		return
	}
	if err := rootCmd.Execute(); err != nil {
		// Execute() prints the error.
		os.Exit(1)
	}
}

// signalContext is cancelled on SIGINT or SIGTERM so no further chunks are dispatched.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
