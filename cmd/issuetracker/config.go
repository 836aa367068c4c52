package main

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

var configForce bool

// configDirFunc returns the config directory path, replaceable in tests.
var configDirFunc = defaultConfigDir

func defaultConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "issuetracker"), nil
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or manage configuration",
	Long: `Show or manage issuetracker configuration.

Running bare 'issuetracker config' is the same as 'issuetracker config show'.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return configShowRun()
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create config file with commented defaults",
	RunE: func(cmd *cobra.Command, args []string) error {
		return configInitRun()
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration with sources",
	RunE: func(cmd *cobra.Command, args []string) error {
		return configShowRun()
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "Overwrite existing config file")
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	rootCmd.AddCommand(configCmd)
}

const configTemplate = `# issuetracker configuration
# See: issuetracker config show (for effective values and sources)

# HTTP listen address
addr: "{{ .Addr }}"

# Directory holding index.html, issue.html and public/ (empty = API only)
static_dir: "{{ .StaticDir }}"

storage:
  # Backend: sqlite or mongo
  driver: "{{ .Driver }}"

  # Connect and ping timeout
  timeout: "{{ .Timeout }}"

  sqlite:
    path: "{{ .SQLitePath }}"

  mongo:
    uri: "{{ .MongoURI }}"
    database: "{{ .MongoDatabase }}"

log:
  # debug, info, warn or error
  level: "{{ .LogLevel }}"
  # text or json
  format: "{{ .LogFormat }}"
`

type configTemplateData struct {
	Addr          string
	StaticDir     string
	Driver        string
	Timeout       string
	SQLitePath    string
	MongoURI      string
	MongoDatabase string
	LogLevel      string
	LogFormat     string
}

func configFilePath() (string, error) {
	dir, err := configDirFunc()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

func configInitRun() error {
	cfgPath, err := configFilePath()
	if err != nil {
		return err
	}

	if _, err := os.Stat(cfgPath); err == nil {
		if !configForce {
			return fmt.Errorf("config file already exists: %s (use --force to overwrite)", cfgPath)
		}
		ui.Warning("Overwriting existing config file")
	}

	data := configTemplateData{
		Addr:          viper.GetString("addr"),
		StaticDir:     viper.GetString("static_dir"),
		Driver:        viper.GetString("storage.driver"),
		Timeout:       viper.GetDuration("storage.timeout").String(),
		SQLitePath:    viper.GetString("storage.sqlite.path"),
		MongoURI:      viper.GetString("storage.mongo.uri"),
		MongoDatabase: viper.GetString("storage.mongo.database"),
		LogLevel:      viper.GetString("log.level"),
		LogFormat:     viper.GetString("log.format"),
	}

	tmpl, err := template.New("config").Parse(configTemplate)
	if err != nil {
		return fmt.Errorf("template parse error: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return fmt.Errorf("template execute error: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(cfgPath), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(cfgPath, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	ui.Success("Config file created: %s", cfgPath)
	return nil
}

// configKeys lists the settings shown by config show, in display order.
var configKeys = []string{
	"addr",
	"static_dir",
	"storage.driver",
	"storage.timeout",
	"storage.sqlite.path",
	"storage.mongo.uri",
	"storage.mongo.database",
	"log.level",
	"log.format",
}

// envVar returns the environment variable viper reads key from.
func envVar(key string) string {
	return "ISSUES_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

func configShowRun() error {
	cfgPath := viper.ConfigFileUsed()
	if cfgPath == "" {
		p, err := configFilePath()
		if err != nil {
			return err
		}
		cfgPath = p
	}

	doc, err := loadConfigDoc(cfgPath)
	if err != nil {
		ui.Warning("Ignoring config file %s: %v", cfgPath, err)
	}
	if doc != nil {
		ui.Info("Config file: %s", cfgPath)
	} else {
		ui.Info("Config file: (none)")
	}

	table := ui.Table([]string{"Key", "Value", "Source"})
	for _, key := range configKeys {
		source := "default"
		if env := envVar(key); os.Getenv(env) != "" {
			source = "env " + env
		} else if hasKey(doc, key) {
			source = "file"
		}
		_ = table.Append([]string{key, fmt.Sprint(viper.Get(key)), source})
	}
	return table.Render()
}

// loadConfigDoc parses the config file into its YAML mapping node.
// A missing file yields a nil node and no error.
func loadConfigDoc(path string) (*yaml.Node, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if len(doc.Content) == 0 {
		return &yaml.Node{Kind: yaml.MappingNode}, nil
	}
	return doc.Content[0], nil
}

// hasKey reports whether the dotted key is set in the mapping node.
func hasKey(node *yaml.Node, key string) bool {
	for _, part := range strings.Split(key, ".") {
		if node == nil || node.Kind != yaml.MappingNode {
			return false
		}
		var next *yaml.Node
		for i := 0; i+1 < len(node.Content); i += 2 {
			if node.Content[i].Value == part {
				next = node.Content[i+1]
				break
			}
		}
		node = next
	}
	return node != nil && node.Kind != yaml.MappingNode
}
