package main

import (
	"bufio"
	"context"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/vadiminshakov/adbridge/config"
	"github.com/vadiminshakov/adbridge/core/dto"
	"github.com/vadiminshakov/adbridge/core/executor"
	"github.com/vadiminshakov/adbridge/core/executor/hooks"
	"github.com/vadiminshakov/adbridge/core/requester"
	"github.com/vadiminshakov/adbridge/core/sdk"
	"github.com/vadiminshakov/adbridge/io/gateway/grpc/client"
	"github.com/vadiminshakov/adbridge/io/gateway/grpc/server"
	"github.com/vadiminshakov/adbridge/io/journal"
	"golang.org/x/sync/errgroup"
)

const (
	simulatedLoadLatency = 300 * time.Millisecond
	simulatedShowLatency = time.Second

	maxCommandLength = 64
	maxRefLength     = 256
)

func main() {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	conf, err := config.Get()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch conf.Role {
	case config.RoleExecutor:
		err = runExecutor(ctx, conf)
	case config.RoleRequester:
		err = runRequester(ctx, conf, os.Stdin)
	}
	if err != nil {
		log.Fatal(err)
	}
}

func runExecutor(ctx context.Context, conf *config.Config) error {
	metrics := hooks.NewMetricsHook()
	execHooks := []hooks.Hook{
		hooks.NewDefaultHook(),
		hooks.NewValidationHook(maxCommandLength, maxRefLength),
		metrics,
	}

	if conf.JournalDir != "" {
		j, err := journal.Open(conf.JournalDir)
		if err != nil {
			return err
		}
		defer j.Close()
		log.Infof("reply journal at %s holds %d records", conf.JournalDir, j.Len())
		execHooks = append(execHooks, hooks.NewJournalHook(j))
	}

	adSDK := sdk.NewSimulated(simulatedLoadLatency, simulatedShowLatency, conf.FillRate)
	exec := executor.New(conf, adSDK, execHooks...)
	exec.Start(ctx)

	srv := server.New(conf)
	if err := srv.Run(server.WhiteListChecker); err != nil {
		return err
	}
	defer srv.Stop()

	exec.Serve(ctx, srv.Inbox())

	requests, ok, fail, uptime := metrics.GetStats()
	log.WithFields(log.Fields{"requests": requests, "ok": ok, "fail": fail, "uptime": uptime}).Info("executor stopped")
	return nil
}

func runRequester(ctx context.Context, conf *config.Config, input io.Reader) error {
	cli, err := client.New(conf.Executor)
	if err != nil {
		return err
	}
	defer cli.Close()

	r := requester.New(conf, cli, logNotifier{})
	vars := newVariables()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	commands := make(chan string)
	go func() {
		defer close(commands)
		scanner := bufio.NewScanner(input)
		for scanner.Scan() {
			commands <- scanner.Text()
		}
	}()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		r.Serve(ctx, cli.Inbox())
		return nil
	})
	g.Go(func() error {
		// end of input stops the requester
		defer cancel()
		for {
			select {
			case <-ctx.Done():
				return nil
			case line, ok := <-commands:
				if !ok {
					return nil
				}
				hostCommand(ctx, r, line, vars)
			}
		}
	})

	return g.Wait()
}

func hostCommand(ctx context.Context, r *requester.Requester, line string, vars requester.Variables) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return
	}
	if !r.PluginCommand(ctx, fields[0], fields[1:], vars) {
		log.Warnf("unknown plugin %q", fields[0])
		return
	}
	for _, cmd := range []dto.Command{dto.CommandLoad, dto.CommandShow} {
		log.Debugf("status %s: %s", cmd, r.Status(cmd))
	}
}

// logNotifier stands in for the host event queue.
type logNotifier struct{}

func (logNotifier) ReserveCommonEvent(id int) {
	log.Infof("reserved common event %d", id)
}

// variables stands in for the host's numbered variables.
type variables struct {
	mu     sync.Mutex
	values map[int]int
}

func newVariables() *variables {
	return &variables{values: make(map[int]int)}
}

func (v *variables) SetValue(id int, value int) {
	v.mu.Lock()
	v.values[id] = value
	v.mu.Unlock()
	log.Infof("variable %d = %d", id, value)
}
