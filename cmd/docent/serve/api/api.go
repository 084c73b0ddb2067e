// Package apicmder provides the serve api command and the API service
// assembly shared with "docent serve".
package apicmder

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/docent/api"
	"github.com/papercomputeco/docent/api/mcp"
	"github.com/papercomputeco/docent/cmd/docent/bootstrap"
	"github.com/papercomputeco/docent/pkg/app"
	"github.com/papercomputeco/docent/pkg/config"
	"github.com/papercomputeco/docent/pkg/dotdir"
	"github.com/papercomputeco/docent/pkg/ingest"
)

type apiCommander struct {
	factory bootstrap.Factory
}

const apiLongDesc string = `Run the docent API server on its own.

Serves question answering, document search, summaries, uploads and session
transcripts over HTTP, and the MCP tools at /mcp.`

const apiShortDesc string = "Run the docent API server"

func NewAPICmd() *cobra.Command {
	return newAPICmd(bootstrap.DefaultFactory)
}

func newAPICmd(factory bootstrap.Factory) *cobra.Command {
	cmder := &apiCommander{factory: factory}

	cmd := &cobra.Command{
		Use:   "api",
		Short: apiShortDesc,
		Long:  apiLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.run(cmd)
		},
	}

	config.AddCommonFlags(cmd)
	config.AddFlags(cmd, config.StandaloneFlags)

	return cmd
}

func (c *apiCommander) run(cmd *cobra.Command) error {
	env, err := bootstrap.Load(cmd, config.CommonFlags, config.StandaloneFlags)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := c.factory(ctx, env)
	if err != nil {
		return err
	}
	defer a.Close()

	svc, err := Build(env, a)
	if err != nil {
		return err
	}
	defer svc.Close()

	return svc.Serve(ctx)
}

// Service is an API server together with the ingestion pool behind its
// async uploads.
type Service struct {
	Server *api.Server
	Pool   *ingest.Pool
	env    *bootstrap.Env
}

// Build assembles the MCP handler, ingestion pool and API server around a.
// The upload directory is the docs subdirectory of the config dir.
func Build(env *bootstrap.Env, a *app.App) (*Service, error) {
	mcpServer, err := mcp.NewServer(mcp.Config{
		Pipeline:   a.Pipeline,
		Retriever:  a.Retriever,
		Summarizer: a.Summarizer,
		Logger:     env.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating MCP server: %w", err)
	}

	uploadDir, err := dotdir.NewManager().Subdir(env.ConfigDir, dotdir.DocsDir)
	if err != nil {
		return nil, err
	}

	uploads := a.Ingestor.WithRoot(uploadDir)
	pool, err := ingest.NewPool(&ingest.PoolConfig{
		Ingestor: uploads,
		Logger:   env.Logger,
	})
	if err != nil {
		return nil, err
	}

	server, err := api.NewServer(api.Config{
		ListenAddr: env.Config.API.Listen,
		Pipeline:   a.Pipeline,
		Retriever:  a.Retriever,
		Summarizer: a.Summarizer,
		Ingestor:   uploads,
		Pool:       pool,
		UploadDir:  uploadDir,
		Sessions:   a.Sessions,
		MCPHandler: mcpServer.Handler(),
	}, env.Logger)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("creating API server: %w", err)
	}

	return &Service{Server: server, Pool: pool, env: env}, nil
}

// Serve runs the server until it fails or ctx is done, then shuts it down.
func (s *Service) Serve(ctx context.Context) error {
	errChan := make(chan error, 1)
	go func() {
		if err := s.Server.Run(); err != nil {
			errChan <- fmt.Errorf("API server error: %w", err)
		}
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		s.env.Logger.Info("shutting down API server")
		return s.Server.Shutdown()
	}
}

// Close drains queued uploads.
func (s *Service) Close() {
	s.Pool.Close()
}
