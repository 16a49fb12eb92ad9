package commands

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/natefinch/atomic"

	"git.home.luguber.info/inful/pagesmith/internal/config"
	ferrors "git.home.luguber.info/inful/pagesmith/internal/foundation/errors"
)

const exampleMacros = `\o/ define "title" /o\<title>\o/ . /o\</title>\o/ end /o\
`

const exampleIndex = `\o/ start_page "index" /o\
<!doctype html>
<html>
<head>\o/ template "title" "Home" /o\</head>
<body><h1>Hello from pagesmith</h1></body>
</html>
\o/ end_page /o\
`

// InitCmd implements the 'init' command.
type InitCmd struct {
	Force bool   `help:"Overwrite existing files"`
	Dir   string `short:"d" name:"dir" help:"Project directory to initialize" default:"."`
}

func (i *InitCmd) Run(_ *Global, root *CLI) error {
	return RunInit(i.Dir, root.Config, i.Force)
}

// RunInit writes a configuration file and an example source tree into dir.
func RunInit(dir, configName string, force bool) error {
	fmt.Println("Initializing pagesmith project")
	cfgPath := configName
	if !filepath.IsAbs(cfgPath) {
		cfgPath = filepath.Join(dir, cfgPath)
	}
	cfg := config.Example()
	srcDir := filepath.Join(dir, cfg.Source.Directory)
	for _, d := range []string{srcDir, filepath.Join(dir, cfg.Media.Directory)} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to create directory").
				WithContext(ferrors.KeyPath, d).
				Build()
		}
	}

	fmt.Printf("Writing configuration to %s\n", cfgPath)
	if err := config.Init(cfgPath, force); err != nil {
		fmt.Println("Initialization failed")
		return err
	}

	files := map[string]string{
		filepath.Join(srcDir, cfg.Source.MacroLibrary): exampleMacros,
		filepath.Join(srcDir, "index.html"):            exampleIndex,
	}
	for path, content := range files {
		if _, err := os.Stat(path); err == nil && !force {
			fmt.Printf("Keeping existing %s\n", path)
			continue
		}
		if err := atomic.WriteFile(path, bytes.NewReader([]byte(content))); err != nil {
			return ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to write example file").
				WithContext(ferrors.KeyPath, path).
				Build()
		}
	}
	fmt.Println("initialized successfully")
	return nil
}
