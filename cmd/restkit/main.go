package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/davecgh/go-spew/spew"
	json "github.com/goccy/go-json"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/reoring/restkit"
	"github.com/reoring/restkit/internal/logctx"
	"github.com/reoring/restkit/mapper"
	"github.com/reoring/restkit/mapper/strategyfile"
	"github.com/reoring/restkit/repository"
	"github.com/reoring/restkit/resource"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	var err error
	switch os.Args[1] {
	case "encode":
		err = mapCmd("encode", os.Args[2:])
	case "decode":
		err = mapCmd("decode", os.Args[2:])
	case "schema":
		err = schemaCmd(os.Args[2:])
	case "fetch":
		err = fetchCmd(os.Args[2:])
	case "-h", "--help", "help":
		usage()
		return
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		if err == pflag.ErrHelp {
			return
		}
		fatalf("%v", err)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `restkit CLI

Usage:
  restkit encode -s strategy.yaml [-i input.json] [-o json|yaml|dump]
  restkit decode -s strategy.yaml [-i input.json] [-o json|yaml|dump]
  restkit schema
  restkit fetch --path users [--id 7 | --search] [-s strategy.yaml] [-q key=value]...

Notes:
  - encode maps wire payloads to entities, decode maps entities back.
  - fetch reads RESTKIT_* environment variables; --base-url overrides RESTKIT_BASE_URL.`)
}

type outputFlags struct {
	format  string
	verbose bool
}

func (o *outputFlags) add(fs *pflag.FlagSet) {
	fs.StringVarP(&o.format, "output", "o", "json", "output format: json, yaml or dump")
	fs.BoolVarP(&o.verbose, "verbose", "v", false, "log requests to stderr")
}

func (o *outputFlags) logger() *slog.Logger {
	level := slog.LevelWarn
	if o.verbose {
		level = slog.LevelDebug
	}
	return slog.New(logctx.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

func mapCmd(name string, args []string) error {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	var strategyPath, inputPath string
	var out outputFlags
	fs.StringVarP(&strategyPath, "strategy", "s", "", "strategy file (yaml, json or jsonc)")
	fs.StringVarP(&inputPath, "input", "i", "-", "input JSON file, - for stdin")
	out.add(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if strategyPath == "" {
		fs.Usage()
		os.Exit(2)
	}

	dm, err := loadMapper(strategyPath)
	if err != nil {
		return err
	}
	input, err := readInput(inputPath)
	if err != nil {
		return err
	}
	walk := dm.Encode
	if name == "decode" {
		walk = dm.Decode
	}
	if list, ok := input.([]any); ok {
		res := make([]restkit.Object, len(list))
		for i, item := range list {
			res[i] = walk(item)
		}
		return write(os.Stdout, out.format, res)
	}
	return write(os.Stdout, out.format, walk(input))
}

func schemaCmd(args []string) error {
	fs := pflag.NewFlagSet("schema", pflag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	b, err := strategyfile.SchemaJSON()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(os.Stdout, string(b))
	return err
}

func fetchCmd(args []string) error {
	fs := pflag.NewFlagSet("fetch", pflag.ContinueOnError)
	var baseURL, path, id, strategyPath, idKey string
	var search bool
	var query, headers map[string]string
	var out outputFlags
	fs.StringVar(&baseURL, "base-url", "", "API base URL (default $RESTKIT_BASE_URL)")
	fs.StringVar(&path, "path", "", "resource path, for example users")
	fs.StringVar(&id, "id", "", "load one entity by id")
	fs.StringVar(&idKey, "id-key", repository.DefaultEntityIDKey, "entity id member")
	fs.BoolVar(&search, "search", false, "send query parameters through search normalization")
	fs.StringVarP(&strategyPath, "strategy", "s", "", "strategy file used to map responses")
	fs.StringToStringVarP(&query, "query", "q", nil, "query parameter key=value (repeatable)")
	fs.StringToStringVarP(&headers, "header", "H", nil, "request header key=value (repeatable)")
	out.add(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if path == "" {
		fs.Usage()
		os.Exit(2)
	}

	cfg, err := resource.LoadConfig()
	if err != nil {
		return err
	}
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	logger := out.logger()
	transport, err := resource.NewHTTP(cfg, resource.WithLogger(logger), resource.WithDefaultHeaders(headers))
	if err != nil {
		return err
	}

	opts := []repository.Option{repository.WithEntityIDKey(idKey), repository.WithLogger(logger)}
	if strategyPath != "" {
		dm, err := loadMapper(strategyPath)
		if err != nil {
			return err
		}
		opts = append(opts, repository.WithMapper(dm))
	}
	repo, err := repository.New[restkit.Object](resource.NewRest(transport, path), opts...)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	params := restkit.Object{}
	for k, v := range query {
		params[k] = v
	}
	switch {
	case id != "":
		res, err := repo.LoadByID(ctx, id, params)
		if err != nil {
			return err
		}
		return write(os.Stdout, out.format, map[string]any{"entity": res.Entity, "meta": res.Meta, "raw": res.Raw})
	case search:
		res, err := repo.Search(ctx, params)
		if err != nil {
			return err
		}
		return write(os.Stdout, out.format, map[string]any{"items": res.Items, "meta": res.Meta, "raw": res.Raw})
	default:
		res, err := repo.Load(ctx, params)
		if err != nil {
			return err
		}
		return write(os.Stdout, out.format, map[string]any{"items": res.Items, "meta": res.Meta, "raw": res.Raw})
	}
}

func loadMapper(path string) (*mapper.DataMapper, error) {
	f, err := strategyfile.Load(path)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	s, err := strategyfile.Build(f)
	if err != nil {
		return nil, fmt.Errorf("building %s: %w", path, err)
	}
	return mapper.NewDataMapper(s), nil
}

func readInput(path string) (any, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}
	var v any
	if err := json.NewDecoder(r).Decode(&v); err != nil {
		return nil, fmt.Errorf("reading input: %w", err)
	}
	return v, nil
}

func write(w io.Writer, format string, v any) error {
	switch format {
	case "json":
		b, err := json.MarshalIndent(mapper.JSONSafe(v), "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(b))
		return err
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	case "dump":
		spew.Fdump(w, v)
		return nil
	}
	return fmt.Errorf("unknown output format %q", format)
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, "restkit: "+format+"\n", a...)
	os.Exit(1)
}
