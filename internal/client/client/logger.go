package client

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/foodkeeper/internal/logging"
)

// restyLogger routes resty's printf-style logging into the project logger.
type restyLogger struct {
	log logging.Logger
}

func (l restyLogger) Errorf(format string, v ...interface{}) {
	l.log.Error(context.Background(), fmt.Sprintf(format, v...))
}

func (l restyLogger) Warnf(format string, v ...interface{}) {
	l.log.Warn(context.Background(), fmt.Sprintf(format, v...))
}

func (l restyLogger) Debugf(format string, v ...interface{}) {
	l.log.Debug(context.Background(), fmt.Sprintf(format, v...))
}
