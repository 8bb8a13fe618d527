package compiler

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"
)

// Load error codes.
const (
	ErrCodeGeneric     = "E001" // generic/unknown error
	ErrCodeScanError   = "E002" // directory scan error
	ErrCodeNoFiles     = "E003" // no CUE files found
	ErrCodeLoadFailed  = "E004" // CUE load failed
	ErrCodeNotFound    = "E005" // path not found
	ErrCodeBuildFailed = "E006" // CUE build failed
	ErrCodeNoEntries   = "E007" // no expr entries in the library
	ErrCodeBadEntry    = "E101" // entry failed to compile
)

// LoadMode controls how errors are handled while loading a library.
type LoadMode int

const (
	// LoadModeFailFast stops on the first error encountered.
	LoadModeFailFast LoadMode = iota
	// LoadModeCollectAll collects all errors before returning.
	LoadModeCollectAll
)

// Library is the set of entries loaded from CUE files.
type Library struct {
	Entries   []Entry
	FileCount int
}

// Lookup returns the entry with the given name.
func (l *Library) Lookup(name string) (*Entry, bool) {
	for i := range l.Entries {
		if l.Entries[i].Name == name {
			return &l.Entries[i], true
		}
	}
	return nil, false
}

// Names returns the entry names in sorted order.
func (l *Library) Names() []string {
	names := make([]string, 0, len(l.Entries))
	for _, e := range l.Entries {
		names = append(names, e.Name)
	}
	sort.Strings(names)
	return names
}

// LoadError is an error that occurred while loading a library.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// LoadLibrary loads every entry under the top-level "expr" struct of the
// CUE files at path. path is either a directory, loaded as one CUE package,
// or a single .cue file.
//
// Entries are compiled but not validated; run Validate on the result.
func LoadLibrary(path string, mode LoadMode) (*Library, []error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("library not found: %s", path)}}
	}
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing library: %v", err)}}
	}

	var (
		cfg   *load.Config
		args  []string
		files []string
	)
	if info.IsDir() {
		files, err = FindCUEFiles(path)
		if err != nil {
			return nil, []error{&LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}}
		}
		cfg = &load.Config{Dir: path}
		args = []string{"."}
	} else {
		if filepath.Ext(path) == ".cue" {
			files = []string{path}
		}
		cfg = &load.Config{Dir: filepath.Dir(path)}
		args = []string{"./" + filepath.Base(path)}
	}
	if len(files) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", path)}}
	}

	instances := load.Instances(args, cfg)
	if len(instances) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeLoadFailed, Message: "no CUE instances loaded"}}
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, []error{&LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("loading CUE files: %v", inst.Err)}}
	}

	value := cuecontext.New().BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, []error{&LoadError{Code: ErrCodeBuildFailed, Message: fmt.Sprintf("building CUE value: %v", err)}}
	}

	lib, errs := compileLibrary(value, mode)
	if lib != nil {
		lib.FileCount = len(files)
	}
	return lib, errs
}

// CompileLibrary compiles the "expr" struct of an already built CUE value.
func CompileLibrary(value cue.Value, mode LoadMode) (*Library, []error) {
	return compileLibrary(value, mode)
}

func compileLibrary(value cue.Value, mode LoadMode) (*Library, []error) {
	var errs []error
	lib := &Library{}

	exprVal := lookup(value, "expr")
	if !exprVal.Exists() {
		return lib, []error{&LoadError{Code: ErrCodeNoEntries, Message: "no expr entries found in library"}}
	}

	iter, err := exprVal.Fields()
	if err != nil {
		return lib, []error{&LoadError{Code: ErrCodeGeneric, Message: fmt.Sprintf("iterating entries: %v", err)}}
	}
	for iter.Next() {
		entry, err := CompileEntry(iter.Value())
		if err != nil {
			errs = append(errs, convertCompileError(err, "expr."+iter.Label()))
			if mode == LoadModeFailFast {
				return lib, errs
			}
			continue
		}
		lib.Entries = append(lib.Entries, *entry)
	}

	if len(lib.Entries) == 0 && len(errs) == 0 {
		errs = append(errs, &LoadError{Code: ErrCodeNoEntries, Message: "no expr entries found in library"})
	}
	return lib, errs
}

// FindCUEFiles walks the directory and returns all .cue file paths.
func FindCUEFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && filepath.Ext(path) == ".cue" {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

func convertCompileError(err error, context string) *LoadError {
	var compileErr *CompileError
	if errors.As(err, &compileErr) {
		return &LoadError{
			Code:    ErrCodeBadEntry,
			Message: fmt.Sprintf("%s.%s: %s", context, compileErr.Field, compileErr.Message),
			Pos:     compileErr.Pos,
		}
	}
	return &LoadError{
		Code:    ErrCodeGeneric,
		Message: fmt.Sprintf("%s: %v", context, err),
	}
}
