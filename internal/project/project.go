// Package project defines the sub-projects fsdeploy knows how to package and
// the naming scheme their artifacts follow, locally and in object storage.
package project

import (
	"fmt"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

// Kind describes the shape of a project's build output.
type Kind int

const (
	// KindDir is a directory of assets, archived as a zstd-compressed tarball.
	KindDir Kind = iota
	// KindBinary is a single executable, compressed directly with zstd.
	KindBinary
)

// DefaultName is the project packaged when the caller names none.
const DefaultName = "webui"

// Project describes one packageable sub-project.
type Project struct {
	// Name is the project identifier and the stem of every artifact name.
	Name string
	// Dir is the source subdirectory, relative to the source root.
	Dir string
	// Artifact is the build output path, relative to Dir.
	Artifact string
	// Kind selects the archival strategy for Artifact.
	Kind Kind
	// HostQualified marks projects whose builds target a specific API host
	// and therefore publish host-tagged artifact variants.
	HostQualified bool
	// Image is the container repository stem, empty when the project does
	// not ship as a container image.
	Image string
}

var registry = map[string]Project{
	"webui": {
		Name:          "webui",
		Dir:           "webui",
		Artifact:      "dist/release",
		Kind:          KindDir,
		HostQualified: true,
	},
	"webfs": {
		Name:     "webfs",
		Dir:      "webfs",
		Artifact: "target/release/webfs",
		Kind:     KindBinary,
	},
	"dufs": {
		Name:     "dufs",
		Dir:      "dufs",
		Artifact: "target/release/dufs",
		Kind:     KindBinary,
		Image:    "filesync/dufs",
	},
}

// Lookup resolves a project by name. An empty name resolves to DefaultName.
func Lookup(name string) (Project, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultName
	}
	p, ok := registry[name]
	if !ok {
		return Project{}, fmt.Errorf("unknown project %q (expected one of %s)", name, strings.Join(Names(), ", "))
	}
	return p, nil
}

// Names lists the known project names in stable order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Ext returns the archive file extension for the project's output kind.
func (p Project) Ext() string {
	if p.Kind == KindDir {
		return ".tar.zst"
	}
	return ".zst"
}

// PackageDir returns the local staging folder for the project's artifacts.
func (p Project) PackageDir(packageRoot string) string {
	return filepath.Join(packageRoot, p.Name)
}

// ArchiveName returns the version-tagged archive file name. The host segment
// is included only for host-qualified projects given a non-empty host.
func (p Project) ArchiveName(version, host string) string {
	return p.artifactName("v"+version, host)
}

// LatestName returns the "latest" alias file name.
func (p Project) LatestName(host string) string {
	return p.artifactName("latest", host)
}

func (p Project) artifactName(tag, host string) string {
	host = strings.TrimSpace(host)
	if p.HostQualified && host != "" {
		return fmt.Sprintf("%s-%s-%s%s", p.Name, host, tag, p.Ext())
	}
	return fmt.Sprintf("%s-%s%s", p.Name, tag, p.Ext())
}

// RemoteKeys returns the ordered object-storage keys written for one
// packaging run. Host-qualified projects publish four variants so both
// host-specific and host-agnostic consumers resolve the artifact; everything
// else publishes the single versioned key.
func (p Project) RemoteKeys(keyPrefix, version, host string) []string {
	base := path.Join(keyPrefix, p.Name)
	if p.HostQualified && strings.TrimSpace(host) != "" {
		return []string{
			path.Join(base, p.ArchiveName(version, host)),
			path.Join(base, p.LatestName(host)),
			path.Join(base, p.ArchiveName(version, "")),
			path.Join(base, p.LatestName("")),
		}
	}
	return []string{path.Join(base, p.ArchiveName(version, ""))}
}

// ImageRef returns the fully qualified container image reference for a tag.
func (p Project) ImageRef(registryHost, repo, tag string) string {
	if repo == "" {
		repo = p.Image
	}
	ref := repo + ":" + tag
	if registryHost != "" {
		ref = strings.TrimSuffix(registryHost, "/") + "/" + ref
	}
	return ref
}
