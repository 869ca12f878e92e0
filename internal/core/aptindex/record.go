package aptindex

// PackageRecord describes one resolved package: the version the index pinned
// for the target release, its declared direct dependencies, and where its
// downloaded artifact lives on disk. Records are immutable once fetched
// within a run.
type PackageRecord struct {
	Name     string
	Version  string
	Depends  []string // direct dependency names, in index-declared order
	Filename string   // index-relative artifact path (pool/.../name_ver_arch.deb)
	Checksum string   // "sha256:<hex>" of the artifact content
	Size     int64
	Path     string // scratch location of the downloaded artifact
}
