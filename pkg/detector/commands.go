package detector

import (
	"regexp"

	"github.com/ccollicutt/ifextract/pkg/extract"
)

// KnownCommand is a display command commonly captured in device transcripts.
type KnownCommand struct {
	Name       string              // Canonical command text
	Pattern    *regexp.Regexp      // Matches the command as typed, abbreviations included
	PatternStr string              // Pattern string for reports
	Section    extract.SectionKind // Section kind it produces, empty if not extracted
}

// DefaultCommands returns the built-in commands the detector recognises.
// More specific commands come first so "display interface brief" is not
// reported as "display interface".
func DefaultCommands() []*KnownCommand {
	commands := []*KnownCommand{
		{
			Name:       "display current-configuration",
			PatternStr: `^dis(?:p|pl|pla|play)?\s+cu(?:r|rr|rre|rren|rrent)?(?:-configuration)?$`,
			Section:    extract.SectionConfiguration,
		},
		{
			Name:       "display saved-configuration",
			PatternStr: `^dis(?:p|pl|pla|play)?\s+sa\S*$`,
		},
		{
			Name:       "display interface brief",
			PatternStr: `^dis(?:p|pl|pla|play)?\s+int\S*\s+b\S*$`,
		},
		{
			Name:       "display ip interface brief",
			PatternStr: `^dis(?:p|pl|pla|play)?\s+ip\s+int\S*\s+b\S*$`,
		},
		{
			Name:       "display interface",
			PatternStr: `^dis(?:p|pl|pla|play)?\s+int(?:e|er|erf|erfa|erfac|erface)?$`,
			Section:    extract.SectionStatus,
		},
		{
			Name:       "display transceiver",
			PatternStr: `^dis(?:p|pl|pla|play)?\s+tr\S*(?:\s+\S+)*$`,
		},
		{
			Name:       "display version",
			PatternStr: `^dis(?:p|pl|pla|play)?\s+ver\S*$`,
		},
		{
			Name:       "display lldp neighbor",
			PatternStr: `^dis(?:p|pl|pla|play)?\s+lldp\s+nei\S*(?:\s+\S+)*$`,
		},
	}

	for _, c := range commands {
		c.Pattern = regexp.MustCompile(c.PatternStr)
	}

	return commands
}
