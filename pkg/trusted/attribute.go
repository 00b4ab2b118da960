package trusted

import (
	"fmt"
	"slices"
	"strings"
)

// AttributeName is the name under which the attribute appears
// in a class's attribute table.
const AttributeName = "Trusted"

// AccessFlags selects which capabilities of a class are gated.
type AccessFlags uint16 // A

const ( // A
	// FlagSubclassGated requires a subclass permit to extend
	// the class.
	FlagSubclassGated AccessFlags = 1 << iota
	// FlagResourceAccessGated requires a resource access
	// permit to reach class-private fields and methods.
	FlagResourceAccessGated
	// FlagExceptionPath marks that an exception-based access
	// path exists.
	FlagExceptionPath
)

// Has reports whether every bit of flag is set.
func (f AccessFlags) Has(flag AccessFlags) bool { // A
	return f&flag == flag
}

// String lists the set flags, separated by '|'.
func (f AccessFlags) String() string { // A
	if f == 0 {
		return "none"
	}
	var parts []string
	if f.Has(FlagSubclassGated) {
		parts = append(parts, "subclass")
	}
	if f.Has(FlagResourceAccessGated) {
		parts = append(parts, "resource-access")
	}
	if f.Has(FlagExceptionPath) {
		parts = append(parts, "exception-path")
	}
	if rest := f &^ (FlagSubclassGated |
		FlagResourceAccessGated |
		FlagExceptionPath); rest != 0 {
		parts = append(parts, fmt.Sprintf("0x%04x", uint16(rest)))
	}
	return strings.Join(parts, "|")
}

// Params carries the contents of a new Attribute. Slices are
// copied by New.
type Params struct { // A
	Pool *SecurePool

	// CPExtraEntryOffset is added to a secure pool index to
	// place the entry after the last entry of the ordinary
	// pool.
	CPExtraEntryOffset int32

	// CSPIdentifier is the secure pool index of a Utf8 entry
	// naming the cryptographic service provider.
	CSPIdentifier uint16
	AccessFlags   AccessFlags

	// SubclassKey and ResourceAccessKey are secure pool
	// indices of PublicKey entries. Zero means no key.
	SubclassKey       uint16
	ResourceAccessKey uint16

	DefaultFieldAccessibility  bool
	NonDefaultFields           []uint16
	DefaultMethodAccessibility bool
	NonDefaultMethods          []uint16

	SubclassPermits          []Permit
	ResourceAccessPermits    []Permit
	RefResourceAccessPermits []Permit
	Domains                  []Domain

	// Length is the declared attribute length. Zero lets New
	// compute it from the contents; any other value is kept
	// and checked when the attribute is encoded.
	Length uint32
}

// Attribute is a decoded or freshly built Trusted attribute.
// It is never modified after construction; every accessor that
// exposes a slice returns a copy.
type Attribute struct { // A
	length             uint32
	pool               *SecurePool
	cpExtraEntryOffset int32
	cspIdentifier      uint16
	accessFlags        AccessFlags
	subclassKey        uint16
	resourceAccessKey  uint16

	defaultFieldAccess  bool
	nonDefaultFields    []uint16
	defaultMethodAccess bool
	nonDefaultMethods   []uint16

	permits [permitKinds][]Permit
	domains []Domain
}

// New builds an Attribute from p and checks that every secure
// pool reference it holds resolves to an entry of the right tag.
func New(p Params) (*Attribute, error) { // A
	pool := p.Pool
	if pool == nil {
		pool = &SecurePool{entries: make([]Entry, 1)}
	}
	a := &Attribute{
		pool:                pool,
		cpExtraEntryOffset:  p.CPExtraEntryOffset,
		cspIdentifier:       p.CSPIdentifier,
		accessFlags:         p.AccessFlags,
		subclassKey:         p.SubclassKey,
		resourceAccessKey:   p.ResourceAccessKey,
		defaultFieldAccess:  p.DefaultFieldAccessibility,
		nonDefaultFields:    slices.Clone(p.NonDefaultFields),
		defaultMethodAccess: p.DefaultMethodAccessibility,
		nonDefaultMethods:   slices.Clone(p.NonDefaultMethods),
		permits: [permitKinds][]Permit{
			copyPermits(p.SubclassPermits),
			copyPermits(p.ResourceAccessPermits),
			copyPermits(p.RefResourceAccessPermits),
		},
		domains: copyDomains(p.Domains),
	}
	if err := a.checkCounts(); err != nil {
		return nil, err
	}
	if err := a.Validate(); err != nil {
		return nil, err
	}
	a.length = p.Length
	if a.length == 0 {
		// #nosec G115 -- every count is bounded by checkCounts.
		a.length = uint32(a.EncodedLen())
	}
	return a, nil
}

// checkCounts rejects arrays a 16-bit count cannot describe.
func (a *Attribute) checkCounts() error { // A
	if _, err := lenToUint16(len(a.nonDefaultFields)); err != nil {
		return fmt.Errorf("non-default fields: %w", err)
	}
	if _, err := lenToUint16(len(a.nonDefaultMethods)); err != nil {
		return fmt.Errorf("non-default methods: %w", err)
	}
	for k, permits := range a.permits {
		if _, err := lenToUint16(len(permits)); err != nil {
			return fmt.Errorf(
				"%s permits: %w",
				PermitKind(k),
				err,
			)
		}
	}
	if _, err := lenToUint16(len(a.domains)); err != nil {
		return fmt.Errorf("domains: %w", err)
	}
	return nil
}

// Validate resolves every secure pool reference: the CSP
// identifier, both keys when present, and the signature index of
// every permit.
func (a *Attribute) Validate() error { // A
	if _, err := a.pool.Resolve(a.cspIdentifier, TagUtf8); err != nil {
		return fmt.Errorf("csp identifier: %w", err)
	}
	if a.subclassKey != 0 {
		if _, err := a.pool.Resolve(
			a.subclassKey, TagPublicKey,
		); err != nil {
			return fmt.Errorf("subclass key: %w", err)
		}
	}
	if a.resourceAccessKey != 0 {
		if _, err := a.pool.Resolve(
			a.resourceAccessKey, TagPublicKey,
		); err != nil {
			return fmt.Errorf("class resource access key: %w", err)
		}
	}
	for k, permits := range a.permits {
		for i, p := range permits {
			if _, err := a.pool.Resolve(
				p.SigIndex, TagSignature,
			); err != nil {
				return fmt.Errorf(
					"%s permit %d: %w",
					PermitKind(k),
					i,
					err,
				)
			}
		}
	}
	return nil
}

// Length returns the declared attribute length.
func (a *Attribute) Length() uint32 { return a.length } // A

// Pool returns the secure constant pool. The pool is immutable.
func (a *Attribute) Pool() *SecurePool { return a.pool } // A

// CPExtraEntryOffset returns the offset between secure pool
// indices and the combined index space.
func (a *Attribute) CPExtraEntryOffset() int32 { // A
	return a.cpExtraEntryOffset
}

// VirtualIndex maps a secure pool index into the index space of
// the ordinary pool extended by the secure pool.
func (a *Attribute) VirtualIndex(index uint16) int64 { // A
	return int64(index) + int64(a.cpExtraEntryOffset)
}

// CSPIdentifier returns the secure pool index naming the CSP.
func (a *Attribute) CSPIdentifier() uint16 { // A
	return a.cspIdentifier
}

// CSPName resolves the CSP identifier to its text.
func (a *Attribute) CSPName() (string, error) { // A
	return a.pool.Utf8(a.cspIdentifier)
}

// AccessFlags returns the gating bitmask.
func (a *Attribute) AccessFlags() AccessFlags { // A
	return a.accessFlags
}

// SubclassKeyIndex returns the secure pool index of the
// subclass key, or 0.
func (a *Attribute) SubclassKeyIndex() uint16 { // A
	return a.subclassKey
}

// ResourceAccessKeyIndex returns the secure pool index of the
// class resource access key, or 0.
func (a *Attribute) ResourceAccessKeyIndex() uint16 { // A
	return a.resourceAccessKey
}

// SubclassKeyBytes returns a copy of the subclass key. The
// boolean is false when the attribute has no subclass key.
func (a *Attribute) SubclassKeyBytes() ([]byte, bool, error) { // A
	return a.keyBytes(a.subclassKey)
}

// ResourceAccessKeyBytes returns a copy of the class resource
// access key. The boolean is false when there is no such key.
func (a *Attribute) ResourceAccessKeyBytes() ([]byte, bool, error) { // A
	return a.keyBytes(a.resourceAccessKey)
}

func (a *Attribute) keyBytes(index uint16) ([]byte, bool, error) { // A
	if index == 0 {
		return nil, false, nil
	}
	key, err := a.pool.Key(index)
	if err != nil {
		return nil, false, err
	}
	return key, true, nil
}

// DefaultFieldAccessibility returns the accessibility of every
// field not listed in FieldsAccessibility.
func (a *Attribute) DefaultFieldAccessibility() bool { // A
	return a.defaultFieldAccess
}

// FieldsAccessibility returns a copy of the field indices whose
// accessibility is the negation of the default.
func (a *Attribute) FieldsAccessibility() []uint16 { // A
	return slices.Clone(a.nonDefaultFields)
}

// IsFieldAccessible applies the default and its overrides to a
// field index.
func (a *Attribute) IsFieldAccessible(index uint16) bool { // A
	return a.defaultFieldAccess !=
		slices.Contains(a.nonDefaultFields, index)
}

// DefaultMethodAccessibility returns the accessibility of every
// method not listed in MethodsAccessibility.
func (a *Attribute) DefaultMethodAccessibility() bool { // A
	return a.defaultMethodAccess
}

// MethodsAccessibility returns a copy of the method indices
// whose accessibility is the negation of the default.
func (a *Attribute) MethodsAccessibility() []uint16 { // A
	return slices.Clone(a.nonDefaultMethods)
}

// IsMethodAccessible applies the default and its overrides to
// a method index.
func (a *Attribute) IsMethodAccessible(index uint16) bool { // A
	return a.defaultMethodAccess !=
		slices.Contains(a.nonDefaultMethods, index)
}

// Permits returns a copy of the permit array selected by kind,
// or nil for an unknown kind.
func (a *Attribute) Permits(kind PermitKind) []Permit { // A
	if !kind.valid() {
		return nil
	}
	return copyPermits(a.permits[kind])
}

// SubclassPermits returns a copy of the subclass permits.
func (a *Attribute) SubclassPermits() []Permit { // A
	return a.Permits(SubclassPermit)
}

// ResourceAccessPermits returns a copy of the class resource
// access permits.
func (a *Attribute) ResourceAccessPermits() []Permit { // A
	return a.Permits(ResourceAccessPermit)
}

// RefResourceAccessPermits returns a copy of the referenced
// class resource access permits.
func (a *Attribute) RefResourceAccessPermits() []Permit { // A
	return a.Permits(RefResourceAccessPermit)
}

// PermitClass returns the class index of the first permit of
// the given kind that carries sigIndex.
func (a *Attribute) PermitClass( // A
	kind PermitKind,
	sigIndex uint16,
) (uint16, bool) {
	if !kind.valid() {
		return 0, false
	}
	return FindClassForSignature(a.permits[kind], sigIndex)
}

// PermitSignature returns the signature index of the first
// permit of the given kind that names classIndex.
func (a *Attribute) PermitSignature( // A
	kind PermitKind,
	classIndex uint16,
) (uint16, bool) {
	if !kind.valid() {
		return 0, false
	}
	return FindSignatureForClass(a.permits[kind], classIndex)
}

// PermitSignatureBytes resolves the signature of the first
// permit of the given kind that names classIndex.
func (a *Attribute) PermitSignatureBytes( // A
	kind PermitKind,
	classIndex uint16,
) ([]byte, bool, error) {
	sigIndex, ok := a.PermitSignature(kind, classIndex)
	if !ok {
		return nil, false, nil
	}
	sig, err := a.pool.Signature(sigIndex)
	if err != nil {
		return nil, false, err
	}
	return sig, true, nil
}

// Domains returns a copy of the domain array.
func (a *Attribute) Domains() []Domain { // A
	return copyDomains(a.domains)
}

// EncodedLen returns the size of the attribute body as computed
// from its contents. It equals Length for a consistent
// attribute.
func (a *Attribute) EncodedLen() int { // A
	n := a.pool.EncodedLen()
	n += 4     // cp_extra_entry_offset
	n += 2 + 2 // csp identifier, access flags
	n += 2 + 2 // subclass key, class resource access key
	n += 1 + 2 + 2*len(a.nonDefaultFields)
	n += 1 + 2 + 2*len(a.nonDefaultMethods)
	n += 2 * permitKinds
	for _, permits := range a.permits {
		n += permitSize * len(permits)
	}
	n += 2
	for _, d := range a.domains {
		n += d.encodedLen()
	}
	return n
}

// Equal compares every field, every permit array element-wise
// in order and every domain element-wise in order.
func (a *Attribute) Equal(other *Attribute) bool { // A
	if a == nil || other == nil {
		return a == other
	}
	if a.length != other.length ||
		a.cpExtraEntryOffset != other.cpExtraEntryOffset ||
		a.cspIdentifier != other.cspIdentifier ||
		a.accessFlags != other.accessFlags ||
		a.subclassKey != other.subclassKey ||
		a.resourceAccessKey != other.resourceAccessKey ||
		a.defaultFieldAccess != other.defaultFieldAccess ||
		a.defaultMethodAccess != other.defaultMethodAccess {
		return false
	}
	if !slices.Equal(a.nonDefaultFields, other.nonDefaultFields) ||
		!slices.Equal(a.nonDefaultMethods, other.nonDefaultMethods) {
		return false
	}
	for k := range a.permits {
		if !slices.Equal(a.permits[k], other.permits[k]) {
			return false
		}
	}
	if !slices.EqualFunc(a.domains, other.domains, Domain.Equal) {
		return false
	}
	return a.pool.Equal(other.pool)
}
