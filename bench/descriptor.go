package bench

import "strings"

const (
	DescriptorToken  = "(DESCRIPTION="
	DescriptorTuning = "(TCP.NODELAY=YES)(DISABLE_OOB=ON)"
)

// TuneDescriptor inserts DescriptorTuning right after the first
// DescriptorToken in descriptor. Descriptors without the token come back
// unchanged.
func TuneDescriptor(descriptor string) string {
	i := strings.Index(descriptor, DescriptorToken)
	if i < 0 {
		return descriptor
	}
	at := i + len(DescriptorToken)
	return descriptor[:at] + DescriptorTuning + descriptor[at:]
}
