package sqlscript

import (
	"bufio"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"strings"

	"github.com/numkem/sqlscript/parser"
)

const (
	HEADER_PATTERN     = "--*"
	DEFAULT_TERMINATOR = ";"
)

// Script is a single SQL script source: its content, the name it is
// displayed under and the string that ends each of its statements.
type Script struct {
	Name       string
	Terminator string
	Content    []byte
}

func ReadFile(filename string) (*Script, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file %s: %v", filename, err)
	}
	defer f.Close()

	s := new(Script)
	err = s.Read(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %v", filename, err)
	}

	if s.Name == "" {
		s.Name = strings.TrimSuffix(path.Base(filename), path.Ext(filename))
	}

	return s, nil
}

func ReadString(content string) (*Script, error) {
	r := strings.NewReader(content)
	s := new(Script)

	err := s.Read(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read string content: %v", err)
	}

	return s, nil
}

func getHeaderValue(line, header string) string {
	if strings.HasPrefix(line, header) {
		return strings.TrimSpace(strings.Replace(line, header, "", 1))
	}

	return ""
}

func headerKey(key string) string {
	return fmt.Sprintf("%s %s: ", HEADER_PATTERN, key)
}

// Read fills the script from the reader's content. Headers are `--*`
// comment lines so they stay part of the content and are stripped with
// every other comment once the script is parsed.
func (s *Script) Read(f io.Reader) error {
	scanner := bufio.NewScanner(f)
	var b strings.Builder
	for scanner.Scan() {
		line := scanner.Text()
		if v := getHeaderValue(line, headerKey("name")); v != "" {
			s.Name = v
		}
		if v := getHeaderValue(line, headerKey("terminator")); v != "" {
			s.Terminator = v
		}

		_, err := b.WriteString(line + "\n")
		if err != nil {
			return fmt.Errorf("failed to write to builder: %v", err)
		}
	}

	s.Content = []byte(strings.TrimSuffix(b.String(), "\n"))

	if err := scanner.Err(); err != nil {
		return err
	}

	if s.Terminator == "" {
		s.Terminator = DEFAULT_TERMINATOR
	}
	if err := parser.ValidateTerminator(s.Terminator); err != nil {
		return err
	}

	return nil
}

// ReadScriptDirectory reads every .sql file under dirname, keyed by
// script name.
func ReadScriptDirectory(dirname string, recurse bool) (map[string]*Script, error) {
	scripts := make(map[string]*Script)
	if recurse {
		fsys := os.DirFS(dirname)
		err := fs.WalkDir(fsys, ".", func(filename string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}

			if path.Ext(filename) == ".sql" {
				fullname := path.Join(dirname, filename)

				s, err := ReadFile(fullname)
				if err != nil {
					return fmt.Errorf("failed to read script %s: %v", fullname, err)
				}

				scripts[s.Name] = s
			}

			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to walk directory %s: %v", dirname, err)
		}
	} else {
		entries, err := os.ReadDir(dirname)
		if err != nil {
			return nil, fmt.Errorf("failed to read directory: %v", err)
		}

		for _, e := range entries {
			if path.Ext(e.Name()) == ".sql" {
				fullname := path.Join(dirname, e.Name())

				s, err := ReadFile(fullname)
				if err != nil {
					return nil, fmt.Errorf("failed to read script %s: %v", fullname, err)
				}

				scripts[s.Name] = s
			}
		}
	}

	return scripts, nil
}
