package source

type (
	// FileID uniquely identifies a source file within a FileSet.
	// IDs are 1-based; NoFileID marks an absent file.
	FileID uint32
	// FileFlags encodes metadata about a source file.
	FileFlags uint8
)

const NoFileID FileID = 0

const (
	// FileVirtual indicates the file was added from memory (test, stdin, etc.).
	FileVirtual FileFlags = 1 << iota
	// FileNoContent marks entries registered by path only; the renderer skips
	// context lines for them.
	FileNoContent
)

// File captures metadata and (optionally) content for a single source file.
// The analyzer itself never reads files from disk; content arrives alongside
// the AST dump and is used only for diagnostic rendering.
type File struct {
	ID      FileID
	Path    string
	Content []byte
	LineIdx []uint32
	Hash    [32]byte
	Flags   FileFlags
}
