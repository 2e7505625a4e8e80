package log_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/apex/log"

	mylog "github.com/Tiliavir/harvestctl/internal/log"
)

func TestHandlerFormatsFields(t *testing.T) {
	var buf bytes.Buffer
	logger := &log.Logger{Handler: mylog.NewHandler(&buf), Level: log.DebugLevel}

	logger.WithFields(log.Fields{"url": "http://acme.harvestapp.com/projects", "status": 200}).Debug("harvest request")

	line := buf.String()
	if !strings.Contains(line, " D harvest request") {
		t.Errorf("line %q lacks level and message", line)
	}
	if !strings.Contains(line, "status=200 url=http://acme.harvestapp.com/projects") {
		t.Errorf("line %q lacks sorted fields", line)
	}
	if !strings.HasSuffix(line, "\n") {
		t.Errorf("line %q is not newline terminated", line)
	}
}

func TestInitLoggerLevel(t *testing.T) {
	t.Setenv("HARVEST_LOG", "debug")
	mylog.InitLogger()
	if l, ok := log.Log.(*log.Logger); ok && l.Level != log.DebugLevel {
		t.Errorf("level = %v, want debug", l.Level)
	}
}
