package logsvc

import (
	"log"

	"github.com/rollbar/rollbar-go"
	"github.com/rollbar/rollbar-go/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/user"
)

// RollbarLogger reports to Rollbar and mirrors every event on a std logger.
// Rollbar stays disabled without a token and in test mode.
type RollbarLogger struct {
	std *log.Logger
}

var _ core.Logger = (*RollbarLogger)(nil)

func NewRollbarLogger(std *log.Logger, conf *core.Config) *RollbarLogger {
	rollbar.SetToken(conf.RollbarToken)
	rollbar.SetEnvironment(conf.Env)
	rollbar.SetServerHost(conf.Server.Host)
	rollbar.SetCodeVersion(conf.Build)
	rollbar.SetStackTracer(errors.StackTracer)
	rollbar.SetEnabled(conf.RollbarToken != "" && !conf.TestMode)
	return &RollbarLogger{std: std}
}

func (l RollbarLogger) Enable(enabled bool) {
	rollbar.SetEnabled(enabled)
}

// Close waits for queued reports to be sent.
func (l RollbarLogger) Close() {
	rollbar.Close()
}

func (l RollbarLogger) Debug(msg string, args ...interface{}) {
	l.log("DEBUG", rollbar.Debug, msg, args)
}

func (l RollbarLogger) Info(msg string, args ...interface{}) {
	l.log("INFO", rollbar.Info, msg, args)
}

func (l RollbarLogger) Warn(msg string, args ...interface{}) {
	l.log("WARN", rollbar.Warning, msg, args)
}

func (l RollbarLogger) Error(msg string, args ...interface{}) {
	l.log("ERROR", rollbar.Error, msg, args)
}

func (l RollbarLogger) Fatal(msg string, args ...interface{}) {
	l.log("FATAL", rollbar.Critical, msg, args)
	rollbar.Close()
	l.std.Fatal(msg)
}

func (l RollbarLogger) log(level string, report func(...interface{}), msg string, args []interface{}) {
	report(reportArgs(msg, args)...)

	l.std.Printf("[%s] %s", level, msg)
	for _, arg := range args {
		if _, ok := arg.(user.Profile); !ok {
			l.std.Printf("%+v\n", arg)
		}
	}
}

// reportArgs turns args (error, map[string]interface{}, user.Profile) into rollbar's.
// The first profile becomes the reported person, it is not sent as extra data.
func reportArgs(msg string, args []interface{}) []interface{} {
	out := append(make([]interface{}, 0, len(args)+1), msg)
	var person *user.Profile
	for i := range args {
		prof, ok := args[i].(user.Profile)
		switch {
		case !ok:
			out = append(out, args[i])
		case person == nil:
			person = &prof
		}
	}

	if person != nil {
		rollbar.SetPerson(person.ID, person.FullName, person.Email)
	} else {
		rollbar.ClearPerson()
	}
	return out
}
