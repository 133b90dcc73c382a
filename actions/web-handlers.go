package actions

import (
	"context"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/wbxdata/replipipe/logger"
)

type WebServerResponse uint32

const (
	Okay WebServerResponse = iota + 1
	Error
)

func (w WebServerResponse) MarshalJSON() ([]byte, error) {
	var retval string
	switch w {
	case Okay:
		retval = "ok"
	case Error:
		retval = "error"
	default:
		return nil, fmt.Errorf("unhandled WebServerResponse value in MarshalJSON() conversion")
	}
	return json.Marshal(retval)
}

type ResponseSimple struct {
	ServerStatus WebServerResponse `json:"status"`
}

type ResponseRunList struct {
	Status WebServerResponse `json:"status"`
	Runs   []RunInfo         `json:"runs"`
}

type ResponseRunStatus struct {
	Status  WebServerResponse `json:"status"`
	Message string            `json:"message,omitempty"`
	Run     *RunInfo          `json:"run,omitempty"`
}

type ResponseRunLaunch struct {
	Status  WebServerResponse `json:"status"`
	Message string            `json:"message"`
	RunID   string            `json:"runId,omitempty"`
}

func GetHandlerHealth(log logger.Logger) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		respond(log, w, ResponseSimple{ServerStatus: Okay})
	}
}

func GetHandlerStopServer(log logger.Logger, chanStop chan string) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		select {
		case chanStop <- "stop":
			log.Info("Stop signal sent")
		default: // already stopping.
		}
		respond(log, w, ResponseSimple{ServerStatus: Okay})
	}
}

// GetHandlerReplicate launches the job in the request body under ctx, which outlives the request.
func GetHandlerReplicate(ctx context.Context, log logger.Logger, registry *RunRegistry, web *WebServerConfig) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		b, err := ioutil.ReadAll(r.Body)
		if err != nil {
			logAndRespond(log, err, w, ResponseRunLaunch{Status: Error, Message: fmt.Sprintf("error reading request: %v", err)})
			return
		}
		cfg := &ReplicateConfig{}
		if err = json.Unmarshal(b, cfg); err != nil {
			logAndRespond(log, err, w, ResponseRunLaunch{Status: Error, Message: fmt.Sprintf("error unmarshalling JSON: %v", err)})
			return
		}
		cfg.LogLevel = web.LogLevel
		cfg.StackDumpOnPanic = web.StackDumpOnPanic
		cfg.StatsDumpFrequencySeconds = web.StatsDumpFrequencySeconds
		id, err := registry.Launch(ctx, log, cfg, web.Env)
		if err != nil {
			logAndRespond(log, err, w, ResponseRunLaunch{Status: Error, Message: fmt.Sprintf("invalid job: %v", err)})
			return
		}
		log.Info("launched run ", id)
		w.WriteHeader(http.StatusOK)
		respond(log, w, ResponseRunLaunch{Status: Okay, Message: "run launched", RunID: id})
	}
}

func GetHandlerRunList(log logger.Logger, registry *RunRegistry) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		respond(log, w, ResponseRunList{Status: Okay, Runs: registry.List()})
	}
}

func GetHandlerRunStatus(log logger.Logger, registry *RunRegistry) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["runId"]
		info, ok := registry.Load(id)
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			log.Info("HTTP request for status of run ", id, " that doesn't exist.")
			respond(log, w, ResponseRunStatus{Status: Error, Message: fmt.Sprintf("run %v does not exist", id)})
			return
		}
		w.WriteHeader(http.StatusOK)
		respond(log, w, ResponseRunStatus{Status: Okay, Run: &info})
	}
}

// logAndRespond logs err and writes http.StatusBadRequest with body r.
func logAndRespond(log logger.Logger, err error, w http.ResponseWriter, r interface{}) {
	log.Error(err)
	w.WriteHeader(http.StatusBadRequest)
	respond(log, w, r)
}

// respond marshals i to w.
func respond(log logger.Logger, w http.ResponseWriter, i interface{}) {
	j, err := json.MarshalIndent(i, "", "  ")
	if err != nil {
		log.Error(err)
		return
	}
	if _, err = fmt.Fprint(w, string(j)); err != nil {
		log.Error(err)
	}
}
