package serve

import (
	"context"
	"errors"
	"flag"
	"io"
	"net"
	"net/http"
	"syscall"
	"time"

	"github.com/brimdata/wave/cli"
	"github.com/brimdata/wave/cli/logflags"
	"github.com/brimdata/wave/cmd/wave/root"
	"github.com/brimdata/wave/pkg/charm"
	"github.com/brimdata/wave/pkg/fs"
	"github.com/brimdata/wave/service"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var Cmd = &charm.Spec{
	Name:  "serve",
	Usage: "serve [options] source-url",
	Short: "serve a source as an FDSN dataselect web service",
	Long: `
The serve command answers FDSN dataselect queries on the interface and
port given by -l.  Every query opens a new source from source-url, which
is typically a combined source of a SeedLink server and an SDS archive,
and streams the MiniSEED records it delivers.

Prometheus metrics of the service and its sources are exported at
/metrics.

The -log.level option controls log verbosity. Available levels,
ordered from most to least verbose, are debug, info (the default),
warn, error, dpanic, panic, and fatal.`,
	HiddenFlags: "portfile",
	New:         New,
}

type Command struct {
	*root.Command
	conf       service.Config
	logFlags   logflags.Flags
	listenAddr string
	portFile   string
	shutdown   time.Duration
}

func New(parent charm.Command, f *flag.FlagSet) (charm.Command, error) {
	c := &Command{Command: parent.(*root.Command)}
	c.conf.Version = cli.Version()
	c.logFlags.SetFlags(f)
	f.Func("cors.origin", "CORS allowed origin (may be repeated)", func(s string) error {
		c.conf.CORSAllowedOrigins = append(c.conf.CORSAllowedOrigins, s)
		return nil
	})
	f.StringVar(&c.listenAddr, "l", ":8080", "[addr]:port to listen on")
	f.StringVar(&c.portFile, "portfile", "", "write listen port to file")
	f.DurationVar(&c.conf.Timeout, "timeout", 30*time.Second, "timeout of blocking source operations (0 for none)")
	f.DurationVar(&c.shutdown, "shutdown", 5*time.Second, "time allowed for running queries on shutdown")
	return c, nil
}

func (c *Command) Run(args []string) error {
	// Don't include SIGPIPE here or else a write to a closed socket (i.e.,
	// a broken network connection) will cancel the context on Linux.
	ctx, cleanup, err := c.InitWithSignals(nil, syscall.SIGINT, syscall.SIGTERM)
	if err != nil {
		return err
	}
	defer cleanup()
	if len(args) != 1 {
		return errors.New("serve: a single source URL is required")
	}
	logger, err := c.logFlags.Open()
	if err != nil {
		return err
	}
	defer logger.Sync()
	reg := prometheus.NewRegistry()
	if c.conf.Registry, err = c.Registry(logger, reg); err != nil {
		return err
	}
	c.conf.Logger = logger
	c.conf.Source = args[0]
	c.conf.Registerer = reg
	c.conf.Gatherer = reg
	core, err := service.NewCore(c.conf)
	if err != nil {
		return err
	}
	ln, err := net.Listen("tcp", c.listenAddr)
	if err != nil {
		return err
	}
	if c.portFile != "" {
		if err := writePortFile(c.portFile, ln.Addr().String()); err != nil {
			ln.Close()
			return err
		}
	}
	logger.Info("Listening", zap.Stringer("addr", ln.Addr()))
	return serve(ctx, &http.Server{Handler: core, ReadHeaderTimeout: 10 * time.Second}, ln, c.shutdown, logger)
}

// serve runs srv on ln until ctx is canceled and then shuts it down.
func serve(ctx context.Context, srv *http.Server, ln net.Listener, grace time.Duration, logger *zap.Logger) error {
	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		if err := srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-ctx.Done()
		logger.Info("Shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), grace)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil {
			logger.Warn("Forcing shutdown", zap.Error(err))
			return srv.Close()
		}
		return nil
	})
	return group.Wait()
}

func writePortFile(path, addr string) error {
	_, port, err := net.SplitHostPort(addr)
	if err != nil {
		return err
	}
	return fs.ReplaceFile(path, 0644, func(w io.Writer) error {
		_, err := w.Write([]byte(port))
		return err
	})
}
