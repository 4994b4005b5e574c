package logger

import (
	"github.com/sirupsen/logrus"
)

// Log общий логгер сервиса. До Init указывает на стандартный логгер logrus.
var Log = logrus.StandardLogger()

// Init инициализирует структурированный логгер.
func Init(level, env string) {
	Log = logrus.New()

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	Log.SetLevel(lvl)

	// JSON для production, текст для development
	if env == "production" {
		Log.SetFormatter(&logrus.JSONFormatter{})
		return
	}
	Log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
}
