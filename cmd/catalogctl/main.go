// Package main implements catalogctl, a command line front end for the product catalog.
//
// Usage:
//
//	catalogctl list
//	catalogctl create -name Pen -price 10 -image http://x/pen.png
//	catalogctl update -id <id> -name "Pen v2" -price 12 -image http://x/pen2.png
//	catalogctl delete -id <id>
//	catalogctl watch
//
// Every command except watch loads the catalog first, applies its change through the client store
// and prints the resulting catalog. watch tails product change events from NATS JetStream.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"text/tabwriter"

	"github.com/abgdnv/gocatalog/pkg/catalogclient"
	"github.com/abgdnv/gocatalog/pkg/config/configloader"
	"github.com/abgdnv/gocatalog/pkg/logger"
)

const serviceName = "catalogctl"

var errUsage = errors.New("usage: catalogctl list | create -name -price -image | update -id -name -price -image | delete -id | watch")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := configloader.Load[*Config](serviceName, defaults())
	if err != nil {
		log.Printf("failed to load configuration: %v", err)
		os.Exit(1)
	}
	mLogger := logger.New(cfg.Log.Level, os.Stderr)

	if len(os.Args) > 1 && os.Args[1] == "watch" {
		if err := watch(ctx, cfg, os.Stdout, mLogger); err != nil {
			log.Printf("watch failed: %v", err)
			os.Exit(1)
		}
		return
	}

	store := catalogclient.NewStore(catalogclient.NewClient(cfg.Client), mLogger)

	os.Exit(run(ctx, store, os.Args[1:], os.Stdout, os.Stderr))
}

// run executes one command and returns the process exit code.
func run(ctx context.Context, store *catalogclient.Store, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		_, _ = fmt.Fprintln(stderr, errUsage)
		return 2
	}

	cmd, err := parseCommand(args[0], args[1:], stderr)
	if err != nil {
		_, _ = fmt.Fprintln(stderr, err)
		return 2
	}

	fetched := store.FetchAll(ctx)
	if !fetched.Success {
		_, _ = fmt.Fprintln(stderr, fetched.Message)
		return 1
	}

	success, message := cmd(ctx, store)
	if message != "" {
		_, _ = fmt.Fprintln(stdout, message)
	}
	render(stdout, store.Products())
	if !success {
		return 1
	}
	return 0
}

type command func(ctx context.Context, store *catalogclient.Store) (bool, string)

func parseCommand(name string, args []string, stderr io.Writer) (command, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	id := fs.String("id", "", "product id")
	productName := fs.String("name", "", "product name")
	price := fs.Float64("price", 0, "product price")
	image := fs.String("image", "", "product image URL")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	input := catalogclient.ProductInput{Name: *productName, Price: *price, Image: *image}

	switch name {
	case "list":
		return func(context.Context, *catalogclient.Store) (bool, string) { return true, "" }, nil
	case "create":
		return func(ctx context.Context, store *catalogclient.Store) (bool, string) {
			r := store.Create(ctx, input)
			return r.Success, r.Message
		}, nil
	case "update":
		return func(ctx context.Context, store *catalogclient.Store) (bool, string) {
			r := store.Update(ctx, *id, input)
			return r.Success, r.Message
		}, nil
	case "delete":
		return func(ctx context.Context, store *catalogclient.Store) (bool, string) {
			r := store.Delete(ctx, *id)
			return r.Success, r.Message
		}, nil
	default:
		return nil, errUsage
	}
}

func render(w io.Writer, products []catalogclient.Product) {
	if len(products) == 0 {
		_, _ = fmt.Fprintln(w, "No products found")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ID\tNAME\tPRICE\tIMAGE")
	for _, p := range products {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", p.ID, p.Name, strconv.FormatFloat(p.Price, 'f', 2, 64), p.Image)
	}
	_ = tw.Flush()
}
