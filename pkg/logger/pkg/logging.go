package logging

import (
	"fmt"

	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// New builds the process logger from viper config. Pretty mode is the
// development config with stacktraces on errors only.
func New() (*zap.Logger, error) {
	var c zap.Config
	var opts []zap.Option
	if viper.GetBool("log.pretty") {
		c = zap.NewDevelopmentConfig()
		opts = append(opts, zap.AddStacktrace(zap.ErrorLevel))
	} else {
		c = zap.NewProductionConfig()
	}

	level := zap.NewAtomicLevel()
	levelName := viper.GetString("log.level")
	if levelName == "" {
		levelName = "INFO"
	}
	if err := level.UnmarshalText([]byte(levelName)); err != nil {
		return nil, fmt.Errorf("could not parse log level %s", levelName)
	}
	c.Level = level

	return c.Build(opts...)
}
