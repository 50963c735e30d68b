package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// LanguageInfo lists one language and the extensions mapped to it.
type LanguageInfo struct {
	Language   string   `json:"language" yaml:"language"`
	Extensions []string `json:"extensions" yaml:"extensions"`
	Available  bool     `json:"available" yaml:"available"`
}

// NewLanguagesCommand creates the languages command.
func NewLanguagesCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "languages",
		Short: "List supported languages and file extensions",
		Long: `List the languages with a registered frontend and the file extensions
mapped to each. Extensions configured in .flowir.yaml for a language
without a frontend are listed as unavailable.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLanguages(rootOpts, cmd)
		},
	}
	return cmd
}

func runLanguages(opts *RootOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	sess, err := openSession(cfg, engineSettings{NoCache: true})
	if err != nil {
		return err
	}
	defer sess.Close()

	infos := languageInfos(sess.Engine.Languages(), sess.Engine.Extensions(), sess.Engine.LanguageFor)

	if formatter.Structured() {
		return formatter.Success(infos)
	}

	tw := tabwriter.NewWriter(formatter.Writer, 0, 4, 2, ' ', 0)
	for _, info := range infos {
		exts := strings.Join(info.Extensions, " ")
		if !info.Available {
			exts += " " + dimText("(no frontend)")
		}
		fmt.Fprintf(tw, "%s\t%s\n", info.Language, exts)
	}
	return tw.Flush()
}

// languageInfos groups extensions by language. Registered languages come
// first in their sorted order, followed by mapped languages that have no
// frontend.
func languageInfos(languages, extensions []string, languageFor func(string) (string, error)) []LanguageInfo {
	byLang := make(map[string][]string)
	var unavailable []string
	registered := make(map[string]bool, len(languages))
	for _, l := range languages {
		registered[l] = true
	}
	for _, ext := range extensions {
		lang, err := languageFor("x" + ext)
		if err != nil {
			continue
		}
		if !registered[lang] && byLang[lang] == nil {
			unavailable = append(unavailable, lang)
		}
		byLang[lang] = append(byLang[lang], ext)
	}

	infos := make([]LanguageInfo, 0, len(languages)+len(unavailable))
	for _, l := range languages {
		exts := byLang[l]
		if exts == nil {
			exts = []string{}
		}
		infos = append(infos, LanguageInfo{Language: l, Extensions: exts, Available: true})
	}
	for _, l := range unavailable {
		infos = append(infos, LanguageInfo{Language: l, Extensions: byLang[l]})
	}
	return infos
}
