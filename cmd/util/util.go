package util

import (
	"fmt"
	"io"
	"strings"

	"github.com/VictoriaMetrics/metrics"
	"github.com/Witchie/BinSerializer/lib/common"
	"github.com/Witchie/BinSerializer/lib/manifest"
	"github.com/Witchie/BinSerializer/lib/serializer"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	// Wrap is the number of characters to Wrap the help text at
	Wrap int = 50
)

// WrapString wraps a string at Wrap characters
func WrapString(text string) string {
	var wrappedLines []string
	var currentLine strings.Builder
	lineWidth := 0

	for _, word := range strings.Fields(text) {
		wordWidth := len(word)

		if lineWidth > 0 && lineWidth+1+wordWidth > Wrap {
			wrappedLines = append(wrappedLines, currentLine.String())
			currentLine.Reset()
			lineWidth = 0
		}

		if lineWidth > 0 {
			currentLine.WriteString(" ")
			lineWidth++
		}

		currentLine.WriteString(word)
		lineWidth += wordWidth
	}

	if currentLine.Len() > 0 {
		wrappedLines = append(wrappedLines, currentLine.String())
	}

	return strings.Join(wrappedLines, "\n")
}

// InitConfig initializes configuration from environment variables
func InitConfig() {
	// load env files
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	// initialize viper
	viper.SetEnvPrefix("binser")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // read in environment variables that match
}

// BindCommandFlags binds a command's flags to viper
func BindCommandFlags(cmd *cobra.Command) error {
	return viper.BindPFlags(cmd.Flags())
}

// splitList splits a comma separated flag value, dropping empty entries
func splitList(value string) []string {
	var out []string
	for _, s := range strings.Split(value, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// GetConfig reads the configuration from viper
func GetConfig() (*common.Config, error) {
	conf := common.DefaultConfig()
	conf.LogLevel = viper.GetString("log-level")
	conf.Manifest = viper.GetString("manifest")
	conf.Metrics = viper.GetBool("metrics")

	if viper.IsSet("bench-types") {
		conf.Bench.TypeIds = splitList(viper.GetString("bench-types"))
	}
	if viper.IsSet("threads") {
		conf.Bench.Threads = viper.GetInt("threads")
	}
	if viper.IsSet("list-size") {
		conf.Bench.ListSize = viper.GetInt("list-size")
	}
	conf.Bench.Skip = splitList(viper.GetString("skip"))

	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return conf, nil
}

// BuildSerializer creates a serializer with the primitive types and, if
// configured, the types of the schema manifest registered
func BuildSerializer(conf *common.Config) (*serializer.Serializer, error) {
	s, err := serializer.NewWithPrimitives()
	if err != nil {
		return nil, err
	}
	if conf.Manifest == "" {
		return s, nil
	}

	m, err := manifest.Load(conf.Manifest)
	if err != nil {
		return nil, err
	}
	if _, err := m.Apply(s); err != nil {
		return nil, fmt.Errorf("failed to apply manifest %s: %w", conf.Manifest, err)
	}
	return s, nil
}

// Setup binds the flags of cmd, reads the configuration, initializes the
// loggers and builds the serializer. Command groups call it from their
// PersistentPreRunE.
func Setup(cmd *cobra.Command) (*common.Config, *serializer.Serializer, error) {
	if err := BindCommandFlags(cmd); err != nil {
		return nil, nil, err
	}
	conf, err := GetConfig()
	if err != nil {
		return nil, nil, err
	}
	if err := common.InitLoggers(conf); err != nil {
		return nil, nil, err
	}
	s, err := BuildSerializer(conf)
	if err != nil {
		return nil, nil, err
	}
	return conf, s, nil
}

// PrintMetrics writes all metrics of the process in the prometheus text format
func PrintMetrics(w io.Writer) {
	metrics.WritePrometheus(w, false)
}
