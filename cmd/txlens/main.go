package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	browsecmder "github.com/lanternworks/txlens/cmd/txlens/browse"
	explaincmder "github.com/lanternworks/txlens/cmd/txlens/explain"
	mcpcmder "github.com/lanternworks/txlens/cmd/txlens/mcptool"
	mergecmder "github.com/lanternworks/txlens/cmd/txlens/merge"
	servecmder "github.com/lanternworks/txlens/cmd/txlens/serve"
	synccmder "github.com/lanternworks/txlens/cmd/txlens/sync"
)

const rootLongDesc string = `txlens explains blockchain transactions and wallet activity in plain
English, with every explanation produced inside a TEE on the
OpenGradient inference network and recorded in a local
content-addressed attestation log.`

func main() {
	// Optional .env for local development; absence is fine
	_ = godotenv.Load()

	root := &cobra.Command{
		Use:          "txlens",
		Short:        "Verifiable plain-English explanations of blockchain activity",
		Long:         rootLongDesc,
		SilenceUsage: true,
	}

	root.AddCommand(
		servecmder.NewServeCmd(),
		explaincmder.NewExplainCmd(),
		browsecmder.NewBrowseCmd(),
		synccmder.NewSyncCmd(),
		mergecmder.NewMergeCmd(),
		mcpcmder.NewMCPCmd(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
