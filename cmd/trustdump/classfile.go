package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"strings"

	"github.com/ulikunitz/xz"

	"github.com/i5heu/ouroboros-trusted/internal/config"
	"github.com/i5heu/ouroboros-trusted/pkg/classattr"
	"github.com/i5heu/ouroboros-trusted/pkg/csp"
	"github.com/i5heu/ouroboros-trusted/pkg/signer"
	"github.com/i5heu/ouroboros-trusted/pkg/trusted"
)

// The files trustdump reads and writes hold a names-only constant
// pool followed by an attribute table. A ".xz" suffix means the
// whole file is xz compressed.

func readClassFile(
	path string,
	cfg config.Config,
	logger *slog.Logger,
) ([]classattr.Attribute, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var src io.Reader = bufio.NewReader(f)
	if strings.HasSuffix(path, ".xz") {
		zr, err := xz.NewReader(src)
		if err != nil {
			return nil, fmt.Errorf("open xz stream %s: %w", path, err)
		}
		src = zr
	}

	pool, err := classattr.ReadPool(src)
	if err != nil {
		return nil, fmt.Errorf("read constant pool of %s: %w", path, err)
	}
	r := classattr.NewReader(pool, classattr.Options{
		SkipInvalid: cfg.SkipInvalid,
		Logger:      logger,
	})
	attrs, err := r.ReadTable(src)
	if err != nil {
		return nil, fmt.Errorf("read attributes of %s: %w", path, err)
	}
	return attrs, nil
}

func writeClassFile(
	path string,
	pool classattr.Pool,
	attrs []classattr.Attribute,
) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	bw := bufio.NewWriter(f)
	var dst io.Writer = bw
	var zw *xz.Writer
	if strings.HasSuffix(path, ".xz") {
		zw, err = xz.NewWriter(bw)
		if err != nil {
			return fmt.Errorf("create xz stream: %w", err)
		}
		dst = zw
	}

	if err := classattr.WritePool(dst, pool); err != nil {
		return err
	}
	if err := classattr.WriteTable(dst, attrs); err != nil {
		return err
	}
	if zw != nil {
		if err := zw.Close(); err != nil {
			return fmt.Errorf("finish xz stream: %w", err)
		}
	}
	return bw.Flush()
}

// Used when the config names no supertypes.
var (
	sampleInterfaces = []string{"java/lang/Runnable"}
	sampleSuperclass = "java/lang/Object"
)

// buildSample signs one subclass permit per direct supertype, a
// resource access permit for the superclass and one domain. The
// secure pool is placed after the last entry of ordinary.
func buildSample(
	s *signer.Signer,
	cfg config.Config,
	ordinary classattr.Pool,
) (*trusted.Attribute, error) {
	interfaces, superclass := cfg.Interfaces, cfg.Superclass
	if len(interfaces) == 0 && superclass == "" {
		interfaces, superclass = sampleInterfaces, sampleSuperclass
	}
	// Permit class indices run from 0 to len(interfaces).
	if len(interfaces) > math.MaxUint16 {
		return nil, fmt.Errorf(
			"%d interfaces, at most %d fit a permit class index",
			len(interfaces),
			math.MaxUint16,
		)
	}
	if len(ordinary) > math.MaxUint16+1 {
		return nil, fmt.Errorf("ordinary pool has %d entries", len(ordinary)-1)
	}
	supertypes := append(append([]string(nil), interfaces...), superclass)

	b := trusted.NewBuilder()
	cspIndex, err := s.AddCSP(b)
	if err != nil {
		return nil, err
	}
	keyIndex, err := s.AddKey(b)
	if err != nil {
		return nil, err
	}

	var subclassPermits []trusted.Permit
	for i, name := range supertypes {
		if name == "" {
			continue
		}
		// #nosec G115 -- i <= len(interfaces), checked above.
		p, err := s.Permit(b, uint16(i), []byte(name))
		if err != nil {
			return nil, err
		}
		subclassPermits = append(subclassPermits, p)
	}
	// #nosec G115 -- checked above.
	superIndex := uint16(len(interfaces))
	resourcePermit, err := s.Permit(b, superIndex, []byte("resource:"+superclass))
	if err != nil {
		return nil, err
	}
	domain, err := s.Domain([]byte("sample-domain"))
	if err != nil {
		return nil, err
	}

	pool, err := b.Pool()
	if err != nil {
		return nil, err
	}
	// #nosec G115 -- bounded by the ordinary pool check above.
	offset := int32(len(ordinary) - 1)
	return trusted.New(trusted.Params{
		Pool:                       pool,
		CPExtraEntryOffset:         offset,
		CSPIdentifier:              cspIndex,
		AccessFlags:                trusted.FlagSubclassGated | trusted.FlagResourceAccessGated,
		SubclassKey:                keyIndex,
		ResourceAccessKey:          keyIndex,
		DefaultFieldAccessibility:  true,
		NonDefaultFields:           []uint16{0},
		DefaultMethodAccessibility: false,
		NonDefaultMethods:          []uint16{1, 2},
		SubclassPermits:            subclassPermits,
		ResourceAccessPermits:      []trusted.Permit{resourcePermit},
		Domains:                    []trusted.Domain{domain},
	})
}

func writeSample(
	ctx context.Context,
	cfg config.Config,
	logger *slog.Logger,
	out string,
) error {
	provider, err := csp.ByName(cfg.CSP)
	if err != nil {
		return err
	}
	s, err := signer.Generate(provider)
	if err != nil {
		return err
	}
	pool := classattr.NewPool(trusted.AttributeName, "SourceFile", "Sample.java")
	a, err := buildSample(s, cfg, pool)
	if err != nil {
		return fmt.Errorf("build sample: %w", err)
	}
	attrs := []classattr.Attribute{
		{NameIndex: pool.Index(trusted.AttributeName), Trusted: a},
		{NameIndex: pool.Index("SourceFile"), Length: 2, Raw: []byte{0, 3}},
	}
	if err := writeClassFile(out, pool, attrs); err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}
	logger.InfoContext(ctx, "wrote sample",
		logKeyFile, out,
		"csp", provider.Name(),
		"length", a.Length())
	return nil
}
