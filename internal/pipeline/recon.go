package pipeline

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/romso/r4d4r/internal/domain"
	"github.com/romso/r4d4r/internal/process"
)

// Stage names of the recon table.
const (
	StageSubfinder   = "subfinder"
	StageAssetfinder = "assetfinder"
	StageMerge       = "merge"
	StageHttpxStatus = "httpx-status"
	StageHttpxLive   = "httpx-live"
	StageSubzy       = "subzy"
	StageBLH         = "blh"
	StageCorsy       = "corsy"
)

// Files produced inside the output directory.
const (
	FileSubfinder   = "domain1.txt"
	FileAssetfinder = "domain2.txt"
	FileDomains     = "domains.txt"
	FileStatus      = "status.txt"
	FileLive        = "live.txt"
)

const (
	mergeTimeout = 30 * time.Second
	slowTimeout  = 300 * time.Second
)

// StageOptions adjusts one stage of the recon table.
type StageOptions struct {
	// Timeout overrides the stage deadline when positive.
	Timeout time.Duration
	// Disabled removes the stage from the graph.
	Disabled bool
	// Binary replaces the program name, e.g. an absolute path.
	Binary string
}

// ReconGraph builds the fixed recon tool graph for pctx. Commands run inside
// pctx.OutputDir; artifact paths are joined onto it.
func ReconGraph(pctx domain.PipelineContext, opts map[string]StageOptions) Graph {
	dir := pctx.OutputDir
	at := func(name string) string { return filepath.Join(dir, name) }
	bin := func(stage, def string) string {
		if o, ok := opts[stage]; ok && o.Binary != "" {
			return o.Binary
		}
		return def
	}
	t := pctx.Target

	stages := []domain.Stage{
		{
			Name:    StageSubfinder,
			Label:   "Subfinder",
			Command: domain.CommandSpec{Argv: []string{bin(StageSubfinder, "subfinder"), "-d", t, "-all"}},
			Group:   "enum",
			Output:  domain.Artifacts{Stdout: at(FileSubfinder)},
		},
		{
			Name:    StageAssetfinder,
			Label:   "Assetfinder",
			Command: domain.CommandSpec{Argv: []string{bin(StageAssetfinder, "assetfinder"), t, "--subs-only"}},
			Group:   "enum",
			Output:  domain.Artifacts{Stdout: at(FileAssetfinder)},
		},
		{
			Name:    StageMerge,
			Label:   "Merge",
			Command: domain.CommandSpec{Argv: []string{bin(StageMerge, "sort"), "-u", FileSubfinder, FileAssetfinder}},
			Timeout: mergeTimeout,
			After:   []string{StageSubfinder, StageAssetfinder},
			Output: domain.Artifacts{
				Stdout:          at(FileDomains),
				EnsureNewline:   true,
				EmptyOnFailure:  true,
				RemoveOnSuccess: []string{at(FileSubfinder), at(FileAssetfinder)},
			},
		},
		{
			Name:    StageHttpxStatus,
			Label:   "httpx status",
			Command: domain.CommandSpec{Shell: fmt.Sprintf("cat %s | %s -sc > %s", FileDomains, process.Quote(bin(StageHttpxStatus, "httpx")), FileStatus)},
			Group:   "probe",
			After:   []string{StageMerge},
		},
		{
			Name:    StageHttpxLive,
			Label:   "httpx live",
			Command: domain.CommandSpec{Shell: fmt.Sprintf("cat %s | %s > %s", FileDomains, process.Quote(bin(StageHttpxLive, "httpx")), FileLive)},
			Group:   "probe",
			After:   []string{StageMerge},
		},
		{
			Name:    StageSubzy,
			Label:   "Subzy",
			Command: domain.CommandSpec{Argv: []string{bin(StageSubzy, "subzy"), "run", "--targets", FileDomains}},
			Timeout: slowTimeout,
			After:   []string{StageMerge},
			Output:  domain.Artifacts{Stdout: at("Subzy/subzy.txt"), Stderr: at("Subzy/subzy.err")},
		},
		{
			Name:    StageBLH,
			Label:   "BLH",
			Command: domain.CommandSpec{Argv: []string{bin(StageBLH, "blh"), "-d", "1", "https://" + t}},
			Timeout: slowTimeout,
			Output:  domain.Artifacts{Stdout: at("BLH/blh.txt"), Stderr: at("BLH/blh.err"), SkipEmpty: true},
		},
		{
			Name:    StageCorsy,
			Label:   "Corsy",
			Command: domain.CommandSpec{Argv: []string{bin(StageCorsy, "corsy"), "-i", FileLive}},
			Timeout: slowTimeout,
			After:   []string{StageHttpxLive},
			Output:  domain.Artifacts{Stdout: at("Corsy/corsy.txt"), Stderr: at("Corsy/corsy.err"), SkipEmpty: true},
		},
	}

	var disabled []string
	for i := range stages {
		s := &stages[i]
		s.Dir = dir
		o := opts[s.Name]
		if o.Timeout > 0 {
			s.Timeout = o.Timeout
		}
		if o.Disabled {
			disabled = append(disabled, s.Name)
		}
	}
	return NewGraph(stages...).Without(disabled...)
}
