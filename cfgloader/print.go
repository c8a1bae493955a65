package cfgloader

import (
	"fmt"
	"log/slog"

	"gopkg.in/yaml.v3"

	"github.com/meridiancms/mediacore/mask"
)

func printConfig(config any) {
	masked := mask.Struct(config)

	out, err := yaml.Marshal(masked)
	if err != nil {
		slog.Error("failed to marshal config", "error", err.Error())
		return
	}
	slog.Info(fmt.Sprintf("Loaded config:\n%s", string(out)))
}
