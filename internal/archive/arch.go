package archive

import "strings"

// archKernel maps a concrete architecture to the kernel name used when
// matching it against Debian Policy §11.1's wildcard table. This is
// a closed, small enumeration; no available library exposes an
// arch-wildcard expander, so it is implemented as a table rather than
// pulled in as a dependency.
var archKernel = map[string]string{
	"amd64":        "linux",
	"i386":         "linux",
	"arm64":        "linux",
	"armel":        "linux",
	"armhf":        "linux",
	"mips64el":     "linux",
	"mipsel":       "linux",
	"ppc64el":      "linux",
	"riscv64":      "linux",
	"s390x":        "linux",
	"kfreebsd-amd64": "kfreebsd",
	"kfreebsd-i386":  "kfreebsd",
	"hurd-i386":      "hurd",
}

var archCPU = map[string]string{
	"amd64":          "amd64",
	"i386":            "i386",
	"arm64":           "arm64",
	"armel":           "arm",
	"armhf":           "arm",
	"mips64el":        "mips64el",
	"mipsel":          "mipsel",
	"ppc64el":         "ppc64el",
	"riscv64":         "riscv64",
	"s390x":           "s390x",
	"kfreebsd-amd64":  "amd64",
	"kfreebsd-i386":   "i386",
	"hurd-i386":       "i386",
}

// abiLibc reports the userland libc family; everything here is glibc except
// the few musl ports, which is enough for the "musl-any-any" wildcard.
func abiLibc(arch string) string {
	if strings.HasPrefix(arch, "musl-") {
		return "musl"
	}
	return "gnu"
}

// ArchMatches resolves archive wildcard aliases ("any", "linux-any",
// "any-arm", "gnu-any-any", "musl-any-any", ...) against a concrete
// architecture. "all" and "source" match only themselves.
func ArchMatches(pattern, arch string) bool {
	if pattern == arch {
		return true
	}
	if pattern == "all" || pattern == "source" {
		return false
	}
	if arch == "all" || arch == "source" {
		return false
	}
	if pattern == "any" {
		return true
	}

	parts := strings.Split(pattern, "-")
	kernel, cpu := "any", "any"
	switch len(parts) {
	case 1:
		cpu = parts[0]
	case 2:
		kernel, cpu = parts[0], parts[1]
	case 3:
		// libc-kernel-cpu form, e.g. gnu-any-any / musl-any-any.
		libc, k, c := parts[0], parts[1], parts[2]
		if libc != "any" && libc != abiLibc(arch) {
			return false
		}
		kernel, cpu = k, c
	default:
		return false
	}

	if kernel != "any" && kernel != archKernel[arch] {
		return false
	}
	if cpu != "any" && cpu != archCPU[arch] {
		return false
	}
	return true
}
