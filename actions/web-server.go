package actions

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/wbxdata/replipipe/helper"
	"github.com/wbxdata/replipipe/logger"
)

const (
	urlContext4Replicate = "/replicate"
)

type WebServerConfig struct {
	LogLevel                  string `errorTxt:"log level" mandatory:"yes"`
	Scheme                    string `errorTxt:"scheme" mandatory:"no"`
	Addr                      net.IP `errorTxt:"address" mandatory:"no"`
	Port                      int    `errorTxt:"port" mandatory:"yes"`
	Env                       *Environment
	StatsDumpFrequencySeconds int
	StackDumpOnPanic          bool
}

func RunWebServer(web *WebServerConfig) error {
	if web == nil {
		return errors.New("nil pointer to web server config supplied")
	}
	log := logger.NewLogger("replipipe", web.LogLevel, web.StackDumpOnPanic)
	if err := helper.ValidateStructIsPopulated(web); err != nil {
		return err
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	srv, chanStopServer, registry := runServer(ctx, log, web)
	return waitForServer(log, srv, chanStopServer, cancel, registry)
}

// runServer starts a web server in the background and returns it with
// a channel that stops it and the registry of runs it launches under ctx.
func runServer(ctx context.Context, log logger.Logger, web *WebServerConfig) (*http.Server, chan string, *RunRegistry) {
	chanStopServer := make(chan string, 1)
	registry := NewRunRegistry()
	r := newRouter(ctx, log, web, registry, chanStopServer)
	srv := &http.Server{
		Addr:         fmt.Sprintf("%v:%v", web.Addr, web.Port),
		WriteTimeout: time.Second * 15,
		ReadTimeout:  time.Second * 15,
		IdleTimeout:  time.Second * 60,
		Handler:      r,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil {
			if err == http.ErrServerClosed {
				log.Info(err)
			} else {
				log.Panic(err)
			}
		}
	}()
	log.Info(fmt.Sprintf("Listening on %v://%v:%v", strings.ToLower(web.Scheme), web.Addr, web.Port))
	return srv, chanStopServer, registry
}

func newRouter(ctx context.Context, log logger.Logger, web *WebServerConfig, registry *RunRegistry, chanStopServer chan string) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/stop", GetHandlerStopServer(log, chanStopServer))
	r.Path("/health").HandlerFunc(GetHandlerHealth(log))
	r.Path("/runs").Methods(http.MethodGet).HandlerFunc(GetHandlerRunList(log, registry))
	r.Path("/runs/{runId}").Methods(http.MethodGet).HandlerFunc(GetHandlerRunStatus(log, registry))
	r.Path(urlContext4Replicate).Methods(http.MethodPost).Headers("Content-Type", "application/json").HandlerFunc(
		GetHandlerReplicate(ctx, log, registry, web))
	return r
}

// waitForServer blocks until a stop request or SIGINT, then stops dispatching new chunks,
// waits for in-flight runs and shuts the server down.
func waitForServer(log logger.Logger, srv *http.Server, chanStopServer chan string, cancelRuns context.CancelFunc, registry *RunRegistry) error {
	chanOS := make(chan os.Signal, 1)
	signal.Notify(chanOS, os.Interrupt)
	select {
	case <-chanStopServer:
	case <-chanOS:
	}
	fmt.Println()
	log.Info("Shutting down web server...")
	cancelRuns()
	registry.Wait()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*15)
	defer cancel()
	return srv.Shutdown(ctx)
}
