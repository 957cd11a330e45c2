package driver

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cupidthecat/cupidasm/asm"
)

// memDriver returns a driver whose filesystem is the given map.
func memDriver(files map[string]string) *Driver {
	d := New()
	d.ReadFile = func(path string) ([]byte, error) {
		src, ok := files[path]
		if !ok {
			return nil, os.ErrNotExist
		}
		return []byte(src), nil
	}
	return d
}

func TestAssemble(t *testing.T) {
	assert := assert.New(t)

	d := memDriver(map[string]string{
		"exit.asm": strings.Join([]string{
			"main:",
			"mov eax, SYS_EXIT",
			"mov ebx, 0",
			"int 0x80",
		}, "\n"),
	})

	img, err := d.Assemble("exit.asm")
	assert.NoError(err)
	assert.Equal([]byte{
		0xB8, 0x01, 0x00, 0x00, 0x00,
		0xBB, 0x00, 0x00, 0x00, 0x00,
		0xCD, 0x80,
	}, img.Code)
	assert.Empty(img.Data)
	assert.Equal(uint32(0), img.Entry)
	assert.Equal(uint32(CODE_BASE), img.CodeBase)
	assert.Equal(uint32(DATA_BASE), img.DataBase)
}

func TestAssembleMissingSource(t *testing.T) {
	assert := assert.New(t)

	d := memDriver(nil)
	_, err := d.Assemble("gone.asm")
	assert.ErrorIs(err, os.ErrNotExist)
}

func TestAssembleSourceLimit(t *testing.T) {
	assert := assert.New(t)

	d := memDriver(map[string]string{
		"big.asm": strings.Repeat(";", asm.SOURCE_LIMIT+1),
	})
	_, err := d.Assemble("big.asm")
	assert.ErrorIs(err, asm.ErrSourceSize)
}

func TestAssembleInclude(t *testing.T) {
	assert := assert.New(t)

	d := memDriver(map[string]string{
		"prog.asm": "%include \"lib.asm\"\nmain:\nret\n",
		"lib.asm":  "nop\n",
	})

	img, err := d.Assemble("prog.asm")
	assert.NoError(err)
	assert.Equal([]byte{0x90, 0xC3}, img.Code)
	assert.Equal(uint32(1), img.Entry)
}

func TestAssembleHostBinding(t *testing.T) {
	assert := assert.New(t)

	d := memDriver(map[string]string{
		"prog.asm": "main:\ncall host_exit\n",
	})
	d.Bindings = []HostBinding{{Name: "host_exit", Addr: 0x0700_0000}}

	img, err := d.Assemble("prog.asm")
	assert.NoError(err)
	assert.Equal(byte(0xE8), img.Code[0])

	// call rel32 lands on the bound address.
	rel := int32(binary.LittleEndian.Uint32(img.Code[1:]))
	site := int64(CODE_BASE) + 5
	assert.Equal(int64(0x0700_0000), site+int64(rel))
}

func TestAssembleConstantsOverride(t *testing.T) {
	assert := assert.New(t)

	d := memDriver(map[string]string{
		"prog.asm": "main:\nmov eax, ANSWER\n",
	})
	d.Constants = []HostConstant{{Name: "ANSWER", Value: 42}}

	img, err := d.Assemble("prog.asm")
	assert.NoError(err)
	assert.Equal([]byte{0xB8, 0x2A, 0x00, 0x00, 0x00}, img.Code)
}

func TestAssembleError(t *testing.T) {
	assert := assert.New(t)

	d := memDriver(map[string]string{
		"bad.asm": "main:\nmov eax\n",
	})

	img, err := d.Assemble("bad.asm")
	assert.Nil(img)
	assert.ErrorIs(err, asm.ErrCommaMissing)
}

func TestAssembleFreshState(t *testing.T) {
	assert := assert.New(t)

	d := memDriver(map[string]string{
		"a.asm": "one equ 1\nmain:\nmov eax, one\n",
		"b.asm": "main:\nmov eax, one\n",
	})

	_, err := d.Assemble("a.asm")
	assert.NoError(err)

	// Labels from the first assembly must not leak into the second.
	_, err = d.Assemble("b.asm")
	assert.ErrorIs(err, asm.ErrLabelUndefined("one"))
}

func TestAssembleDeterministic(t *testing.T) {
	assert := assert.New(t)

	d := memDriver(map[string]string{
		"prog.asm": strings.Join([]string{
			"main:",
			"mov ecx, msg",
			"mov edx, 6",
			"int 0x80",
			"section .data",
			"msg:",
			`db "hello", 10`,
		}, "\n"),
	})

	first, err := d.Assemble("prog.asm")
	assert.NoError(err)
	second, err := d.Assemble("prog.asm")
	assert.NoError(err)
	assert.Equal(first.Code, second.Code)
	assert.Equal(first.Data, second.Data)
	assert.Equal(first.Entry, second.Entry)
}

func TestBuild(t *testing.T) {
	assert := assert.New(t)

	d := memDriver(map[string]string{
		"exit.asm": strings.Join([]string{
			"main:",
			"mov eax, SYS_EXIT",
			"xor ebx, ebx",
			"int 0x80",
		}, "\n"),
	})

	out := filepath.Join(t.TempDir(), "a.out")
	assert.NoError(d.Build("exit.asm", out))

	bin, err := os.ReadFile(out)
	assert.NoError(err)
	assert.Equal([]byte{0x7f, 'E', 'L', 'F'}, bin[:4])

	le := binary.LittleEndian
	assert.Equal(uint32(CODE_BASE), le.Uint32(bin[24:]), "e_entry")

	// The code bytes land at the first page boundary.
	assert.Equal([]byte{0xB8, 0x01, 0x00, 0x00, 0x00}, bin[0x1000:0x1005])
}

func TestBuildNoOutputOnError(t *testing.T) {
	assert := assert.New(t)

	d := memDriver(map[string]string{
		"bad.asm": "main:\njmp nowhere\n",
	})

	out := filepath.Join(t.TempDir(), "a.out")
	assert.Error(d.Build("bad.asm", out))
	_, err := os.Stat(out)
	assert.ErrorIs(err, os.ErrNotExist)
}
