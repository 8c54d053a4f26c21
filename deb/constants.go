package deb

// Field is the name of a field in a control or changes descriptor.
type Field string

const (
	FieldPackage       Field = "Package"
	FieldVersion       Field = "Version"
	FieldArchitecture  Field = "Architecture"
	FieldMaintainer    Field = "Maintainer"
	FieldDescription   Field = "Description"
	FieldSection       Field = "Section"
	FieldPriority      Field = "Priority"
	FieldSource        Field = "Source"
	FieldInstalledSize Field = "Installed-Size"
	FieldDate          Field = "Date"
	FieldDistribution  Field = "Distribution"
	FieldUrgency       Field = "Urgency"

	// Fields computed once the .deb has been assembled.
	FieldMD5    Field = "MD5"
	FieldSHA1   Field = "SHA1"
	FieldSHA256 Field = "SHA256"
	FieldSize   Field = "Size"
	FieldFile   Field = "File"

	// Fields specific to .changes documents.
	//
	// Reference: https://www.debian.org/doc/debian-policy/ch-controlfields.html#debian-changes-files-changes
	FieldFormat          Field = "Format"
	FieldBinary          Field = "Binary"
	FieldChangedBy       Field = "Changed-By"
	FieldChanges         Field = "Changes"
	FieldChecksumsSha1   Field = "Checksums-Sha1"
	FieldChecksumsSha256 Field = "Checksums-Sha256"
	FieldFiles           Field = "Files"
)

// ControlFile represents a standard file found in the control.tar.gz archive.
type ControlFile string

const (
	FileControl   ControlFile = "control"
	FileMd5sums   ControlFile = "md5sums"
	FileConffiles ControlFile = "conffiles"
	FilePreinst   ControlFile = "preinst"
	FilePostinst  ControlFile = "postinst"
	FilePrerm     ControlFile = "prerm"
	FilePostrm    ControlFile = "postrm"
)

// isMaintainerFile reports whether name is written after the descriptor has
// been parsed, with variables substituted.
func isMaintainerFile(name string) bool {
	switch ControlFile(name) {
	case FileConffiles, FilePreinst, FilePostinst, FilePrerm, FilePostrm:
		return true
	}
	return false
}

// PackageFile represents a member of the .deb archive (ar format).
type PackageFile string

const (
	PkgDebianBinary PackageFile = "debian-binary"
	PkgControlTarGz PackageFile = "control.tar.gz"
	PkgDataTar      PackageFile = "data.tar"
)

const (
	// debianBinaryVersion is the content of the debian-binary member.
	debianBinaryVersion = "2.0\n"

	// changesFormat is the value of the Format field of generated .changes.
	changesFormat = "1.8"

	// synthesizedDirMode is given to parent directories created on the fly.
	synthesizedDirMode int64 = 0o755

	// controlEntryMode is given to every member of the control archive.
	controlEntryMode int64 = 0o755

	rootUser = "root"
)

// requiredPackageFields must be present in a control file.
//
// Reference: https://www.debian.org/doc/debian-policy/ch-controlfields.html#binary-package-control-files-debian-control
var requiredPackageFields = []Field{
	FieldPackage,
	FieldVersion,
	FieldArchitecture,
	FieldMaintainer,
	FieldDescription,
}

// requiredChangesFields must be present in a .changes document.
var requiredChangesFields = []Field{
	FieldFormat,
	FieldDate,
	FieldSource,
	FieldBinary,
	FieldArchitecture,
	FieldVersion,
	FieldDistribution,
	FieldUrgency,
	FieldMaintainer,
	FieldDescription,
	FieldChecksumsSha1,
	FieldChecksumsSha256,
	FieldFiles,
}
