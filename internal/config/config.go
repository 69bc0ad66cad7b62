package config

import (
	"errors"
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

const (
	DefaultConfigFileName = "config.toml"
	DefaultStoreName      = "simplehub.db"
	DefaultLogName        = "simplehub.log"
	AppDirName            = "simplehub"
	ConfigEnvVar          = "SIMPLEHUB_CONFIG"
)

type Keymap struct {
	Quit       string `toml:"quit"`
	Up         string `toml:"up"`
	Down       string `toml:"down"`
	SwitchPane string `toml:"switch_pane"`
	AddTask    string `toml:"add_task"`
	AddNote    string `toml:"add_note"`
	Toggle     string `toml:"toggle"`
	Delete     string `toml:"delete"`
	Open       string `toml:"open"`
	Confirm    string `toml:"confirm"`
	Cancel     string `toml:"cancel"`
	Save       string `toml:"save"`
	Attach     string `toml:"attach"`
	NextField  string `toml:"next_field"`
	ClearDone  string `toml:"clear_done"`
	DeleteNote string `toml:"delete_note"`
	RemoveFile string `toml:"remove_file"`
	FileUp     string `toml:"file_up"`
	FileDown   string `toml:"file_down"`
}

type Config struct {
	StorePath     string `toml:"store_path"`
	LogPath       string `toml:"log_path"`
	LogLevel      string `toml:"log_level"`
	MaxValueBytes int64  `toml:"max_value_bytes"`
	Keys          Keymap `toml:"keys"`
}

// ResolveConfigPath returns $SIMPLEHUB_CONFIG when set, otherwise the
// config file under the user's config directory.
func ResolveConfigPath() string {
	if p := os.Getenv(ConfigEnvVar); p != "" {
		return p
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return DefaultConfigFileName
	}
	return filepath.Join(dir, AppDirName, DefaultConfigFileName)
}

func LoadOrCreate(path string) (Config, error) {
	cfg := defaultConfig()
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := write(path, cfg); err != nil {
			return cfg, err
		}
		return cfg.resolve(path), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	if cfg.StorePath == "" {
		cfg.StorePath = DefaultStoreName
	}
	if cfg.LogPath == "" {
		cfg.LogPath = DefaultLogName
	}
	cfg.Keys = cfg.Keys.withDefaults(defaultKeymap())
	return cfg.resolve(path), nil
}

// resolve makes relative store and log paths relative to the config file.
func (c Config) resolve(configPath string) Config {
	base := filepath.Dir(configPath)
	if !filepath.IsAbs(c.StorePath) {
		c.StorePath = filepath.Join(base, c.StorePath)
	}
	if !filepath.IsAbs(c.LogPath) {
		c.LogPath = filepath.Join(base, c.LogPath)
	}
	return c
}

func write(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func defaultConfig() Config {
	return Config{
		StorePath: DefaultStoreName,
		LogPath:   DefaultLogName,
		LogLevel:  "info",
		Keys:      defaultKeymap(),
	}
}

func defaultKeymap() Keymap {
	return Keymap{
		Quit:       "q",
		Up:         "k",
		Down:       "j",
		SwitchPane: "tab",
		AddTask:    "a",
		AddNote:    "n",
		Toggle:     " ",
		Delete:     "d",
		Open:       "enter",
		Confirm:    "enter",
		Cancel:     "esc",
		Save:       "ctrl+s",
		Attach:     "ctrl+a",
		NextField:  "tab",
		ClearDone:  "c",
		DeleteNote: "ctrl+d",
		RemoveFile: "ctrl+x",
		FileUp:     "ctrl+p",
		FileDown:   "ctrl+n",
	}
}

// withDefaults fills keys a partial config file left empty.
func (k Keymap) withDefaults(d Keymap) Keymap {
	pick := func(v, def string) string {
		if v == "" {
			return def
		}
		return v
	}
	k.Quit = pick(k.Quit, d.Quit)
	k.Up = pick(k.Up, d.Up)
	k.Down = pick(k.Down, d.Down)
	k.SwitchPane = pick(k.SwitchPane, d.SwitchPane)
	k.AddTask = pick(k.AddTask, d.AddTask)
	k.AddNote = pick(k.AddNote, d.AddNote)
	k.Toggle = pick(k.Toggle, d.Toggle)
	k.Delete = pick(k.Delete, d.Delete)
	k.Open = pick(k.Open, d.Open)
	k.Confirm = pick(k.Confirm, d.Confirm)
	k.Cancel = pick(k.Cancel, d.Cancel)
	k.Save = pick(k.Save, d.Save)
	k.Attach = pick(k.Attach, d.Attach)
	k.NextField = pick(k.NextField, d.NextField)
	k.ClearDone = pick(k.ClearDone, d.ClearDone)
	k.DeleteNote = pick(k.DeleteNote, d.DeleteNote)
	k.RemoveFile = pick(k.RemoveFile, d.RemoveFile)
	k.FileUp = pick(k.FileUp, d.FileUp)
	k.FileDown = pick(k.FileDown, d.FileDown)
	return k
}
