package docker

import (
	"time"

	"github.com/sakif/swiftsnip/internal/model"
)

// Runtime is the toolchain image and shell script used for one language.
// The script reads the snippet from $CODE and runs from the writable /tmp.
type Runtime struct {
	Image  string
	Script string
}

// Config holds the configuration for Docker execution.
type Config struct {
	// Runtimes maps every runnable language to its toolchain.
	Runtimes map[model.Language]Runtime
	// MemoryLimit is the maximum amount of memory a container can use (in bytes).
	MemoryLimit int64
	// CPULimit is the number of CPUs a container can use.
	CPULimit float64
	// Timeout bounds one run, compilation included.
	Timeout time.Duration
	// PoolSize is the number of pre-warmed containers kept per language.
	PoolSize int
	// TmpfsSize is the size option of the /tmp mount, e.g. "64m".
	TmpfsSize string
}

// DefaultConfig covers every language of the editor.
//
// Interpreted languages take the code straight from the environment;
// compiled ones write it to /tmp first, which is why /tmp is mounted exec.
func DefaultConfig() Config {
	return Config{
		Runtimes: map[model.Language]Runtime{
			model.LanguagePython: {
				Image:  "python:3.12-alpine",
				Script: `python3 -c "$CODE"`,
			},
			model.LanguageJavaScript: {
				Image:  "node:22-alpine",
				Script: `node -e "$CODE"`,
			},
			model.LanguageTypeScript: {
				Image:  "denoland/deno:alpine",
				Script: `printf '%s' "$CODE" > /tmp/main.ts && deno run --quiet /tmp/main.ts`,
			},
			model.LanguageC: {
				Image:  "gcc:14",
				Script: `printf '%s' "$CODE" > /tmp/main.c && gcc -O1 -o /tmp/main /tmp/main.c && /tmp/main`,
			},
			model.LanguageCPP: {
				Image:  "gcc:14",
				Script: `printf '%s' "$CODE" > /tmp/main.cpp && g++ -O1 -o /tmp/main /tmp/main.cpp && /tmp/main`,
			},
			model.LanguageJava: {
				Image:  "eclipse-temurin:21",
				Script: `printf '%s' "$CODE" > /tmp/Main.java && java /tmp/Main.java`,
			},
			model.LanguageRust: {
				Image:  "rust:1-alpine",
				Script: `printf '%s' "$CODE" > /tmp/main.rs && rustc -o /tmp/main /tmp/main.rs && /tmp/main`,
			},
		},
		// 256 MB: the JVM and rustc do not start in less
		MemoryLimit: 256 * 1024 * 1024,
		CPULimit:    0.5,
		Timeout:     10 * time.Second,
		PoolSize:    1,
		TmpfsSize:   "64m",
	}
}

// runtimeFor returns the runtime configured for lang.
func (c Config) runtimeFor(lang model.Language) (Runtime, bool) {
	rt, ok := c.Runtimes[lang]
	return rt, ok && rt.Image != "" && rt.Script != ""
}
