package main

import (
	"database/sql"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	natsserver "github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/net/context"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3"

	"github.com/numkem/sqlscript/processor"
	"github.com/numkem/sqlscript/runner"
	sqlstore "github.com/numkem/sqlscript/store"
)

var version = "dev"

const SUBJECT_PREFIX = "sqlscript."

type server struct {
	runner    *runner.Runner
	composite *processor.Composite
}

// countingProcessor wraps the composite so every reply can carry the
// number of statements the script ran.
type countingProcessor struct {
	*processor.Composite
	statements int
}

func (p *countingProcessor) ExecuteStatement(text string, directives []*runner.InitializedDirective) error {
	p.statements++
	return p.Composite.ExecuteStatement(text, directives)
}

func newServer(scriptStore sqlstore.ScriptStore, database *sql.DB, dynamic bool) *server {
	callbacks := processor.NewCallbackHandler()
	callbacks.Register("log", func(ctx *processor.Context, text string, args []string) error {
		ctx.Logger.WithField("args", args).Infof("script callback: %s", text)
		return nil
	})

	composite := processor.NewComposite(
		processor.NewContext(database, log.StandardLogger()),
		&processor.IfHandler{},
		callbacks,
		&processor.LoadTableHandler{},
		&processor.TimeoutHandler{},
	)
	composite.ID = "server"

	configs := map[string]any{
		composite.ID: &processor.Config{
			Handlers: map[string]any{
				"If": &processor.IfConfig{Dynamic: dynamic},
			},
		},
	}

	return &server{
		runner:    runner.NewRunner(scriptStore, configs, log.StandardLogger()),
		composite: composite,
	}
}

func (s *server) handle(ctx context.Context, nc *nats.Conn, msg *nats.Msg) {
	name := strings.TrimPrefix(msg.Subject, SUBJECT_PREFIX)
	fields := log.Fields{"script": name}
	log.WithFields(fields).Debug("received script request")

	propCtx := otel.GetTextMapPropagator().Extract(ctx, natsHeaderCarrier(msg.Header))
	_, span := otel.Tracer("sqlscript/server").Start(propCtx, "run "+name,
		trace.WithSpanKind(trace.SpanKindServer))
	defer span.End()

	counting := &countingProcessor{Composite: s.composite}

	start := time.Now()
	err := s.runner.ExecuteScript(name, counting)

	rep := &Reply{
		Script:     name,
		Statements: counting.statements,
		ElapsedMs:  time.Since(start).Milliseconds(),
	}
	if err != nil {
		span.RecordError(err)
		log.WithFields(fields).Errorf("failed to run script: %v", err)
		rep.Error = err.Error()
	}

	if err := replyMessage(nc, msg.Reply, rep); err != nil {
		log.WithFields(fields).Errorf("failed to reply: %v", err)
	}
}

func main() {
	// Parse command-line flags
	backendName := flag.String("backend", sqlstore.BACKEND_FILE_NAME, "Storage backend to use (etcd, sqlite, file, dev)")
	etcdURL := flag.String("etcdurl", "localhost:2379", "URL of etcd server")
	natsURL := flag.String("natsurl", "", "URL of NATS server")
	logLevel := flag.String("log", "info", "Logging level (debug, info, warn, error)")
	httpPort := flag.Int("port", DEFAULT_HTTP_PORT, "HTTP port to bind to")
	scriptDir := flag.String("script", ".", "Script directory")
	dbPath := flag.String("dbpath", "sqlscript.db", "Path of the sqlite database for the sqlite backend")
	driver := flag.String("driver", "sqlite3", "Name of the database/sql driver to run scripts against")
	dsn := flag.String("dsn", ":memory:", "Connection string handed to the driver")
	dynamic := flag.Bool("dynamic", false, "Re-evaluate If directives on every execution")
	flag.Parse()

	// Set up logging
	level, err := log.ParseLevel(*logLevel)
	if err != nil {
		log.Fatalf("Invalid log level: %v", err)
	}
	log.SetLevel(level)

	if os.Getenv("DEBUG") != "" {
		log.SetLevel(log.DebugLevel)
	}

	// Create the ScriptStore based on the selected backend
	scriptStore, err := sqlstore.StoreByName(*backendName, *etcdURL, *scriptDir, *dbPath)
	if err != nil {
		log.Fatalf("failed to initialize the script store: %v", err)
	}
	log.Infof("Starting %s backend", *backendName)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	otelShutdown, err := setupOTelSDK(ctx)
	if err != nil {
		log.Fatalf("failed to set up tracing: %v", err)
	}
	defer otelShutdown(context.Background())

	if *natsURL == "" {
		if url := os.Getenv("NATS_URL"); url != "" {
			*natsURL = url
		} else {
			// nats isn't provided, we can start an embeded one
			log.Info("Starting embeded NATS server... on 127.0.0.1:4222")
			ns, err := natsserver.NewServer(&natsserver.Options{
				Host: "127.0.0.1",
				Port: 4222,
			})
			if err != nil {
				log.Fatalf("failed to start embeded NATS server: %v", err)
			}

			go ns.Start()
			*natsURL = ns.ClientURL()

			for {
				if ns.ReadyForConnections(1 * time.Second) {
					log.Info("NATS server started")
					break
				}

				log.Info("Waiting for embeded NATS server to start...")
				time.Sleep(1 * time.Second)
			}
		}
	}

	nc, err := nats.Connect(*natsURL)
	if err != nil {
		log.Fatalf("Failed to connect to NATS: %v", err)
	}
	defer nc.Close()

	database, err := sql.Open(*driver, *dsn)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer database.Close()

	srv := newServer(scriptStore, database, *dynamic)

	log.Info("Starting message watch...")

	// Callbacks of a single subscription run one at a time, which the
	// runner requires.
	_, err = nc.Subscribe(SUBJECT_PREFIX+">", func(msg *nats.Msg) {
		srv.handle(ctx, nc, msg)
	})
	if err != nil {
		log.Fatalf("Failed to subscribe to NATS subjects: %v", err)
	}

	// Start HTTP Server
	go runHTTP(*httpPort, *natsURL)

	// Listen for system interrupts for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	cancel()

	log.Info("Received shutdown signal, stopping server...")
}
