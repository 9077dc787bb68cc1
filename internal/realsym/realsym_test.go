//go:build cgo && unix

package realsym

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestResolve(t *testing.T) {
	ptr, err := Resolve("open", nil)
	require.NoError(t, err)
	assert.NotNil(t, ptr)

	again, err := Resolve("open", nil)
	require.NoError(t, err)
	assert.Equal(t, ptr, again)
}

func TestResolve_NotFound(t *testing.T) {
	ptr, err := Resolve("credguard_no_such_symbol", nil)
	assert.Nil(t, ptr)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "credguard_no_such_symbol")
}

func TestResolve_Self(t *testing.T) {
	ptr, err := Resolve("fopen", nil)
	require.NoError(t, err)

	_, err = Resolve("fopen", ptr)
	assert.ErrorIs(t, err, ErrSelf)
}

func TestTable_Lookup(t *testing.T) {
	var calls [3]atomic.Int32
	names := []string{"a", "b", "missing"}
	marker := []byte{1, 2}

	resolve := func(name string, self unsafe.Pointer) (unsafe.Pointer, error) {
		switch name {
		case "a":
			calls[0].Add(1)
			return unsafe.Pointer(&marker[0]), nil
		case "b":
			calls[1].Add(1)
			return unsafe.Pointer(&marker[1]), nil
		default:
			calls[2].Add(1)
			return nil, ErrNotFound
		}
	}
	tbl := NewTableWith(names, nil, resolve)
	assert.Equal(t, 3, tbl.Len())
	assert.Equal(t, "b", tbl.Name(1))
	assert.Empty(t, tbl.Name(7))

	var wg sync.WaitGroup
	for range 32 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range names {
				ptr, err := tbl.Lookup(i)
				if i == 2 {
					assert.ErrorIs(t, err, ErrNotFound)
					assert.Nil(t, ptr)
					continue
				}
				assert.NoError(t, err)
				assert.Equal(t, unsafe.Pointer(&marker[i]), ptr)
			}
		}()
	}
	wg.Wait()

	for i := range calls {
		assert.Equal(t, int32(1), calls[i].Load(), "symbol %q resolved more than once", names[i])
	}
}

func TestTable_LookupSelf(t *testing.T) {
	var wrapper byte
	self := []unsafe.Pointer{unsafe.Pointer(&wrapper)}
	var got unsafe.Pointer
	tbl := NewTableWith([]string{"open"}, self, func(_ string, s unsafe.Pointer) (unsafe.Pointer, error) {
		got = s
		return nil, errors.New("stop")
	})

	_, err := tbl.Lookup(0)
	require.Error(t, err)
	assert.Equal(t, self[0], got)
}

func TestTable_LookupOutOfRange(t *testing.T) {
	tbl := NewTable([]string{"open"}, nil)

	_, err := tbl.Lookup(-1)
	assert.ErrorIs(t, err, ErrIndex)
	_, err = tbl.Lookup(1)
	assert.ErrorIs(t, err, ErrIndex)
}

func TestTable_RealLookup(t *testing.T) {
	tbl := NewTable([]string{"open", "fopen"}, nil)

	for i := range tbl.Len() {
		ptr, err := tbl.Lookup(i)
		require.NoError(t, err, tbl.Name(i))
		assert.NotNil(t, ptr)
	}
}
