// Command transcribe runs the chunked pipeline once over a file in the input
// directory and prints the transcript path.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/codebuildervaibhav/chunked-transcriber/internal/config"
	"github.com/codebuildervaibhav/chunked-transcriber/internal/logger"
	"github.com/codebuildervaibhav/chunked-transcriber/internal/pipeline"
	"github.com/codebuildervaibhav/chunked-transcriber/internal/recap"
	"github.com/codebuildervaibhav/chunked-transcriber/internal/scheduler"
	"github.com/codebuildervaibhav/chunked-transcriber/internal/storage"
	"github.com/codebuildervaibhav/chunked-transcriber/internal/types"
)

func main() {
	var (
		configPath = flag.String("config", config.DefaultPath, "path to the YAML config file")
		withRecap  = flag.Bool("recap", false, "also write a Markdown meeting recap next to the transcript")
		upload     = flag.Bool("upload", false, "upload the transcript to Google Drive")
		driveAuth  = flag.Bool("drive-auth", false, "authorize Google Drive access and store the token, then exit")
		policy     = flag.String("policy", "", "override the failure policy (fail_fast or collect_all)")
		debug      = flag.Bool("debug", false, "enable debug logging")
	)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] <input-name>\n\n", os.Args[0])
		fmt.Fprintf(flag.CommandLine.Output(), "<input-name> is resolved inside pipeline.input_dir.\n\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if *policy != "" {
		cfg.Pipeline.Policy = *policy
		if err := cfg.Validate(); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}
	}

	log := logger.Build(cfg.Log.Debug || *debug, nil)
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *driveAuth {
		err := storage.AuthorizeInteractive(ctx, cfg.GoogleDrive.CredentialsFile, cfg.GoogleDrive.TokenFile, os.Stdin, os.Stdout)
		if err != nil {
			log.Fatalw("Drive authorization failed", "error", err)
		}
		log.Infow("Drive token saved", "path", cfg.GoogleDrive.TokenFile)
		return
	}

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	if err := run(ctx, cfg, flag.Arg(0), *withRecap, *upload, log); err != nil {
		log.Errorw("Transcription failed", "input", flag.Arg(0), "error", err)
		os.Exit(exitCode(err))
	}
}

func run(ctx context.Context, cfg *config.Config, inputName string, withRecap, upload bool, log *zap.SugaredLogger) error {
	p, err := pipeline.FromConfig(cfg, log)
	if err != nil {
		return err
	}

	progress := func(completed, total int) {
		log.Infow("Progress", "completed", completed, "total", total)
	}
	result, err := p.TranscribeFile(ctx, inputName, scheduler.ProgressFunc(progress))
	if err != nil {
		return err
	}
	if result.Partial() {
		log.Warnw("Transcript is missing chunks", "failed_chunks", result.FailedChunks)
	}

	if withRecap {
		s, err := recap.NewOpenAISummarizer(cfg.RecapConfig())
		if err != nil {
			return err
		}
		path, err := recap.WriteRecap(ctx, s, result.OutputPath)
		if err != nil {
			log.Warnw("Recap failed", "error", err)
		} else {
			log.Infow("Recap written", "path", path)
		}
	}

	if upload {
		dc, err := storage.NewDriveClient(ctx, cfg.GoogleDrive.CredentialsFile, cfg.GoogleDrive.TokenFile, cfg.GoogleDrive.FolderName)
		if err != nil {
			return err
		}
		url, err := dc.Upload(ctx, inputName, result)
		if err != nil {
			log.Warnw("Drive upload failed", "error", err)
		}
		if url != "" {
			log.Infow("Uploaded to Google Drive", "url", url)
		}
	}

	fmt.Println(result.OutputPath)
	return nil
}

// exitCode separates bad input from runtime failures.
func exitCode(err error) int {
	switch {
	case errors.Is(err, types.ErrConfig),
		errors.Is(err, types.ErrUnsupportedFormat),
		errors.Is(err, types.ErrNotFound):
		return 2
	default:
		return 1
	}
}
