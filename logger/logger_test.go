package logger_test

import (
	"bytes"
	"encoding/json"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
	"github.com/sirupsen/logrus"
	"github.com/wbxdata/replipipe/logger"
)

var _ = Describe("Logger", func() {
	log := logger.NewLogger("test-service", "debug", true)
	logrus.SetFormatter(&logrus.JSONFormatter{}) // force JSON regardless of the test terminal.

	capture := func(fn func()) map[string]interface{} {
		logOutput := bytes.NewBufferString("")
		log.SetOutput(logOutput)
		fn()
		var actual map[string]interface{}
		Expect(json.Unmarshal(logOutput.Bytes(), &actual)).To(Succeed())
		return actual
	}

	It("Should have `test-service` as service name", func() {
		actual := capture(func() { log.Info("Testing") })
		Expect(actual["service"]).To(Equal("test-service"))
	})

	It("Should have info as log level", func() {
		actual := capture(func() { log.Info("Testing") })
		Expect(actual["level"]).To(Equal("info"))
	})

	It("Should have warn as log level", func() {
		actual := capture(func() { log.Warn("Testing") })
		Expect(actual["level"]).To(Equal("warning"))
	})

	It("Should have error as log level with a stack trace", func() {
		actual := capture(func() { log.Error("Testing") })
		Expect(actual["level"]).To(Equal("error"))
		Expect(actual["stackTrace"]).ToNot(BeNil())
	})

	It("Should have `Testing` as msg", func() {
		actual := capture(func() { log.Info("Testing") })
		Expect(actual["msg"]).To(Equal("Testing"))
	})

	It("Should carry fields added by WithField", func() {
		runLog := log.WithField("runId", "abc123")
		actual := capture(func() { runLog.Info("Testing") })
		Expect(actual["runId"]).To(Equal("abc123"))
		Expect(actual["service"]).To(Equal("test-service"))
	})
})
