package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/schemasmith/schemasmith/internal/artifact"
	artifactminio "github.com/schemasmith/schemasmith/internal/artifact/minio"
	"github.com/schemasmith/schemasmith/internal/dialect"
	"github.com/schemasmith/schemasmith/internal/emit"
	"github.com/schemasmith/schemasmith/internal/enrich"
	"github.com/schemasmith/schemasmith/internal/logger"
	"github.com/schemasmith/schemasmith/internal/model"
	"github.com/schemasmith/schemasmith/internal/parser"
	"github.com/schemasmith/schemasmith/internal/pipeline"
	"github.com/schemasmith/schemasmith/internal/server"
	"github.com/schemasmith/schemasmith/internal/validate"
)

var (
	inputPath      string
	inputType      string
	targetDB       string
	outputFormat   string
	outputFile     string
	configPath     string
	namingStyle    string
	dropStatements bool
	withComments   bool
	noPKGeneration bool
	allowMissingPK bool
	useStore       bool
	serveAddr      string
)

var rootCmd = &cobra.Command{
	Use:   "schemasmith",
	Short: "Generate database schemas from SQL, code, data samples, or text",
	Long: `Schemasmith turns SQL DDL, SQLAlchemy-style ORM code, CSV/JSON data
samples, or plain-English descriptions into normalized, validated schema DDL
for MySQL, PostgreSQL, or a generic document-schema format.`,
	RunE: runGenerate,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the schema generation HTTP API",
	RunE:  runServe,
}

func init() {
	rootCmd.Flags().StringVarP(&inputPath, "input", "i", "", "Input file, or '-' for stdin")
	rootCmd.Flags().StringVarP(&inputType, "type", "t", "sql", "Input type: sql, orm, csv, json, or text")
	rootCmd.Flags().StringVar(&targetDB, "target", "mysql", "Target dialect: mysql, postgres, or document")
	rootCmd.Flags().StringVarP(&outputFormat, "format", "f", "ddl", "Output format: ddl, json, xml, or document")
	rootCmd.Flags().StringVarP(&outputFile, "out", "o", "", "Output file (default: stdout)")
	rootCmd.Flags().StringVar(&namingStyle, "naming", "as_defined", "Identifier naming: as_defined, snake_case, camel_case, or pascal_case")
	rootCmd.Flags().BoolVar(&dropStatements, "drop-statements", false, "Emit DROP TABLE IF EXISTS before each table")
	rootCmd.Flags().BoolVar(&withComments, "comments", false, "Include table and column comments in output")
	rootCmd.Flags().BoolVar(&noPKGeneration, "no-pk-generation", false, "Do not generate surrogate primary keys")
	rootCmd.Flags().BoolVar(&allowMissingPK, "allow-missing-pk", false, "Suppress missing-primary-key warnings")
	rootCmd.Flags().BoolVar(&useStore, "store", false, "Persist the output to the configured artifact store")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML config file")

	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default from config, else :8080)")
	rootCmd.AddCommand(serveCmd)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := newLogger(cfg)

	if inputPath == "" {
		return fmt.Errorf("--input is required")
	}
	input, sourceName, err := readInput(inputPath)
	if err != nil {
		return fmt.Errorf("reading input: %w", err)
	}

	parsedType, ok := parser.ParseInputType(inputType)
	if !ok {
		return fmt.Errorf("unknown input type %q", inputType)
	}
	target, ok := dialect.Parse(targetDB)
	if !ok {
		return fmt.Errorf("unknown target dialect %q", targetDB)
	}

	req := pipeline.Request{
		Sources: []pipeline.Source{{
			Input: input,
			Type:  parsedType,
			Hints: parser.Hints{
				SourceName:    sourceName,
				SampleLimit:   cfg.Parser.SampleLimit,
				MaxInputBytes: cfg.Parser.MaxInputBytes,
			},
		}},
		TargetDialect: target,
		Format:        pipeline.OutputFormat(strings.ToLower(outputFormat)),
		EmitOptions: emit.Options{
			IncludeDropStatements: dropStatements,
			IncludeComments:       withComments,
			Naming:                emit.NamingConvention(namingStyle),
		},
		EnrichConfig: enrich.Config{
			GeneratePrimaryKeys: cfg.Enrich.GeneratePrimaryKeys && !noPKGeneration,
			InferTypes:          cfg.Enrich.InferTypes,
			InferForeignKeys:    cfg.Enrich.InferForeignKeys,
			ResolveHints:        cfg.Enrich.ResolveHints,
		},
		ValidateConfig: validate.Config{
			AllowMissingPK: cfg.Validate.AllowMissingPK || allowMissingPK,
		},
	}

	ctx := log.WithContext(cmd.Context())
	res, err := pipeline.Generate(ctx, req)
	if res != nil {
		printDiagnostics(res.Diagnostics)
	}
	if err != nil {
		return err
	}

	if useStore {
		url, err := storeOutput(ctx, cfg, res, target)
		if err != nil {
			return fmt.Errorf("storing artifact: %w", err)
		}
		fmt.Fprintf(os.Stderr, "stored: %s\n", url)
	}

	return writeOutput(res.Output)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := newLogger(cfg)

	addr := serveAddr
	if addr == "" {
		addr = cfg.Server.Addr
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var store artifact.Store
	if cfg.Store.Endpoint != "" {
		store, err = artifactminio.New(ctx, &artifact.Config{
			Endpoint:  cfg.Store.Endpoint,
			AccessKey: cfg.Store.AccessKey,
			SecretKey: cfg.Store.SecretKey,
			UseSSL:    cfg.Store.UseSSL,
			Bucket:    cfg.Store.Bucket,
		})
		if err != nil {
			return fmt.Errorf("connecting to artifact store: %w", err)
		}
		defer store.Close()
	}

	return server.Run(ctx, addr, server.NewRouter(log, store), log)
}

func loadConfig() (*pipeline.FileConfig, error) {
	if configPath == "" {
		return pipeline.DefaultFileConfig(), nil
	}
	return pipeline.LoadConfig(configPath)
}

func newLogger(cfg *pipeline.FileConfig) *logger.Logger {
	return logger.New(&logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: os.Stderr,
	})
}

func readInput(path string) (content, name string, err error) {
	if path == "-" {
		data, err := io.ReadAll(os.Stdin)
		return string(data), "stdin", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", "", err
	}
	return string(data), path, nil
}

func printDiagnostics(diags []model.Diagnostic) {
	for _, d := range diags {
		loc := d.Location.Table
		if d.Location.Column != "" {
			loc += "." + d.Location.Column
		}
		if loc != "" {
			loc = " [" + loc + "]"
		}
		fmt.Fprintf(os.Stderr, "%s %s%s: %s\n", strings.ToUpper(d.Severity.String()), d.Code, loc, d.Message)
	}
}

func storeOutput(ctx context.Context, cfg *pipeline.FileConfig, res *pipeline.Result, target dialect.ID) (string, error) {
	if cfg.Store.Endpoint == "" {
		return "", fmt.Errorf("no artifact store configured; set store.endpoint in the config file")
	}
	store, err := artifactminio.New(ctx, &artifact.Config{
		Endpoint:  cfg.Store.Endpoint,
		AccessKey: cfg.Store.AccessKey,
		SecretKey: cfg.Store.SecretKey,
		UseSSL:    cfg.Store.UseSSL,
		Bucket:    cfg.Store.Bucket,
	})
	if err != nil {
		return "", err
	}
	defer store.Close()

	key := fmt.Sprintf("schemas/%s/%s.sql", target, res.RequestID)
	if _, err := store.Put(ctx, key, "text/plain; charset=utf-8", []byte(res.Output)); err != nil {
		return "", err
	}
	return store.PresignURL(ctx, key, 24*time.Hour)
}

func writeOutput(output string) error {
	if outputFile == "" {
		fmt.Print(output)
		return nil
	}
	return os.WriteFile(outputFile, []byte(output), 0o644)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
