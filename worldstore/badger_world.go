package worldstore

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"fmt"
	"sync"
	"unsafe"

	"github.com/dgraph-io/badger/v4"

	"github.com/wbrown/ecsquery/ecs"
	"github.com/wbrown/ecsquery/ecsmatch"
	"github.com/wbrown/ecsquery/worldstore/codec"
)

// BadgerWorld is a durable reference implementation of ecsmatch.World.
// Entity locations, archetype definitions, and component payloads are all
// written through Badger, so they survive a process restart; in-memory
// maps cache what's been loaded, rebuilt from Badger by load on open.
//
// Component payloads are encoded with a per-kind Codec registered via
// RegisterCodec, since Badger only stores bytes and this package has no
// static knowledge of component struct layouts.
type BadgerWorld struct {
	mu sync.RWMutex

	db       *badger.DB
	registry *ecs.Registry
	codecs   map[ecs.ComponentId]componentCodec

	entities      *entityTable
	archetypes    *archetypeTable
	archetypeKeys map[string]ecsmatch.ArchetypeId

	nextIndex   uint32
	nextTableId ecsmatch.TableId
	nextArchId  ecsmatch.ArchetypeId

	lastChangeTick uint64
	changeTick     uint64
}

type componentCodec struct {
	encode func(ptr unsafe.Pointer) ([]byte, error)
	decode func([]byte) (unsafe.Pointer, error)
}

// NewBadgerWorld opens (or creates) a durable world at path.
func NewBadgerWorld(path string, reg *ecs.Registry) (*BadgerWorld, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("worldstore: open badger: %w", err)
	}

	w := &BadgerWorld{
		db:            db,
		registry:      reg,
		codecs:        map[ecs.ComponentId]componentCodec{},
		entities:      &entityTable{locations: map[ecs.Entity]ecsmatch.EntityLocation{}},
		archetypes:    &archetypeTable{byId: map[ecsmatch.ArchetypeId]*archetype{}},
		archetypeKeys: map[string]ecsmatch.ArchetypeId{},
	}
	if err := w.load(); err != nil {
		db.Close()
		return nil, err
	}
	return w, nil
}

// Close releases the underlying Badger handle.
func (w *BadgerWorld) Close() error { return w.db.Close() }

// RegisterCodec registers a gob-based encode/decode pair for component id,
// whose Go type is T. T's exported fields must be gob-encodable.
func RegisterCodec[T any](w *BadgerWorld, id ecs.ComponentId) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.codecs[id] = componentCodec{
		encode: func(ptr unsafe.Pointer) ([]byte, error) {
			var buf bytes.Buffer
			if err := gob.NewEncoder(&buf).Encode((*T)(ptr)); err != nil {
				return nil, err
			}
			return buf.Bytes(), nil
		},
		decode: func(data []byte) (unsafe.Pointer, error) {
			v := new(T)
			if err := gob.NewDecoder(bytes.NewReader(data)).Decode(v); err != nil {
				return nil, err
			}
			return unsafe.Pointer(v), nil
		},
	}
}

// Badger key prefixes.
const (
	prefixEntity    = "e/" // e/<entitykey>           -> archetype(4) + row(4)
	prefixArchetype = "a/" // a/<archId(4)>            -> archetype definition
	prefixDense     = "t/" // t/<tableId(4)>/<row(4)>/<componentId(4)> -> encoded component
	prefixSparse    = "s/" // s/<componentId(4)>/<entitykey>           -> encoded component
)

// ForEach calls fn once for every currently live entity, in no particular
// order, from the in-memory index (not a fresh Badger scan).
func (w *BadgerWorld) ForEach(fn func(ecs.Entity)) {
	w.mu.RLock()
	entities := make([]ecs.Entity, 0, len(w.entities.locations))
	for e := range w.entities.locations {
		entities = append(entities, e)
	}
	w.mu.RUnlock()
	for _, e := range entities {
		fn(e)
	}
}

func (w *BadgerWorld) Entities() ecsmatch.Entities     { return w.entities }
func (w *BadgerWorld) Archetypes() ecsmatch.Archetypes { return w.archetypes }
func (w *BadgerWorld) Storages() ecsmatch.Storages {
	return &badgerStorages{tables: &badgerTables{w: w}, sparseSets: &badgerSparseSets{w: w}}
}

type badgerStorages struct {
	tables     *badgerTables
	sparseSets *badgerSparseSets
}

func (s *badgerStorages) Tables() ecsmatch.Tables         { return s.tables }
func (s *badgerStorages) SparseSets() ecsmatch.SparseSets { return s.sparseSets }
func (w *BadgerWorld) Components() *ecs.Registry { return w.registry }
func (w *BadgerWorld) LastChangeTick() uint64     { return w.lastChangeTick }
func (w *BadgerWorld) ChangeTick() uint64         { return w.changeTick }

// Tick advances the world's change tick (see World.Tick).
func (w *BadgerWorld) Tick() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.lastChangeTick = w.changeTick
	w.changeTick++
}

// load rebuilds the in-memory entity/archetype index from what's already
// in Badger, so a reopened world's archetype membership is immediately
// queryable without re-scanning component payloads.
func (w *BadgerWorld) load() error {
	return w.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(prefixArchetype)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			key := it.Item().KeyCopy(nil)
			archId := ecsmatch.ArchetypeId(binary.BigEndian.Uint32(key[len(prefixArchetype):]))
			var val []byte
			err := it.Item().Value(func(v []byte) error {
				val = append([]byte(nil), v...)
				return nil
			})
			if err != nil {
				return err
			}
			arch, err := decodeArchetype(archId, val)
			if err != nil {
				return err
			}
			w.archetypes.byId[archId] = arch
			w.archetypeKeys[archetypeKey(idsOf(arch))] = archId
			if archId >= w.nextArchId {
				w.nextArchId = archId + 1
			}
			if len(arch.dense) > 0 && arch.tableId >= w.nextTableId {
				w.nextTableId = arch.tableId + 1
			}
		}

		prefix = []byte(prefixEntity)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			key := it.Item().KeyCopy(nil)
			entity, err := codec.DecodeEntity(key[len(prefixEntity):])
			if err != nil {
				return err
			}
			var val []byte
			err = it.Item().Value(func(v []byte) error {
				val = append([]byte(nil), v...)
				return nil
			})
			if err != nil {
				return err
			}
			loc := ecsmatch.EntityLocation{
				Archetype: ecsmatch.ArchetypeId(binary.BigEndian.Uint32(val[0:4])),
				Row:       ecsmatch.TableRow(binary.BigEndian.Uint32(val[4:8])),
			}
			w.entities.locations[entity] = loc
			if entity.Index >= w.nextIndex {
				w.nextIndex = entity.Index + 1
			}
		}
		return nil
	})
}

func idsOf(a *archetype) []ecs.ComponentId {
	var ids []ecs.ComponentId
	for id := range a.dense {
		ids = append(ids, id)
	}
	for id := range a.sparse {
		ids = append(ids, id)
	}
	return ids
}

func encodeArchetype(a *archetype) []byte {
	var buf bytes.Buffer
	binary.Write(&buf, binary.BigEndian, uint32(a.tableId))
	binary.Write(&buf, binary.BigEndian, uint32(len(a.dense)))
	for id := range a.dense {
		binary.Write(&buf, binary.BigEndian, uint32(id))
	}
	binary.Write(&buf, binary.BigEndian, uint32(len(a.sparse)))
	for id := range a.sparse {
		binary.Write(&buf, binary.BigEndian, uint32(id))
	}
	return buf.Bytes()
}

func decodeArchetype(id ecsmatch.ArchetypeId, data []byte) (*archetype, error) {
	r := bytes.NewReader(data)
	var tableId, denseCount, sparseCount uint32
	if err := binary.Read(r, binary.BigEndian, &tableId); err != nil {
		return nil, err
	}
	a := &archetype{id: id, tableId: ecsmatch.TableId(tableId), dense: map[ecs.ComponentId]struct{}{}, sparse: map[ecs.ComponentId]struct{}{}}
	if err := binary.Read(r, binary.BigEndian, &denseCount); err != nil {
		return nil, err
	}
	for i := uint32(0); i < denseCount; i++ {
		var cid uint32
		if err := binary.Read(r, binary.BigEndian, &cid); err != nil {
			return nil, err
		}
		a.dense[ecs.ComponentId(cid)] = struct{}{}
	}
	if err := binary.Read(r, binary.BigEndian, &sparseCount); err != nil {
		return nil, err
	}
	for i := uint32(0); i < sparseCount; i++ {
		var cid uint32
		if err := binary.Read(r, binary.BigEndian, &cid); err != nil {
			return nil, err
		}
		a.sparse[ecs.ComponentId(cid)] = struct{}{}
	}
	return a, nil
}

// Spawn persists a new entity holding the given component instances, the
// durable counterpart to World.Spawn. Every component type passed must
// already have a Codec registered via RegisterCodec.
func (w *BadgerWorld) Spawn(components ...interface{}) (ecs.Entity, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	ids := make([]ecs.ComponentId, 0, len(components))
	encoded := make(map[ecs.ComponentId][]byte, len(components))
	for _, c := range components {
		id, ok := ecs.RegisterValue(w.registry, c)
		if !ok {
			return ecs.Entity{}, fmt.Errorf("worldstore: component %T must be passed as a pointer", c)
		}
		cc, ok := w.codecs[id]
		if !ok {
			return ecs.Entity{}, fmt.Errorf("worldstore: component %T has no registered codec", c)
		}
		data, err := cc.encode(componentPointer(c))
		if err != nil {
			return ecs.Entity{}, err
		}
		ids = append(ids, id)
		encoded[id] = data
	}

	key := archetypeKey(ids)
	archId, ok := w.archetypeKeys[key]
	var arch *archetype
	if !ok {
		archId = w.nextArchId
		w.nextArchId++
		arch = &archetype{id: archId, dense: map[ecs.ComponentId]struct{}{}, sparse: map[ecs.ComponentId]struct{}{}}
		for _, id := range ids {
			info := w.registry.MustInfo(id)
			if info.Storage == ecs.Sparse {
				arch.sparse[id] = struct{}{}
			} else {
				arch.dense[id] = struct{}{}
			}
		}
		if len(arch.dense) > 0 {
			arch.tableId = w.nextTableId
			w.nextTableId++
		}
		w.archetypes.byId[archId] = arch
		w.archetypeKeys[key] = archId
	} else {
		arch = w.archetypes.byId[archId]
	}

	entity := ecs.NewEntity(w.nextIndex, 0)
	row := w.tableRowCount(arch.tableId)

	err := w.db.Update(func(txn *badger.Txn) error {
		if !ok {
			akey := append([]byte(prefixArchetype), make([]byte, 4)...)
			binary.BigEndian.PutUint32(akey[len(prefixArchetype):], uint32(archId))
			if err := txn.Set(akey, encodeArchetype(arch)); err != nil {
				return err
			}
		}
		for id, data := range encoded {
			info := w.registry.MustInfo(id)
			var k []byte
			if info.Storage == ecs.Sparse {
				k = sparseKey(id, entity)
			} else {
				k = denseKey(arch.tableId, ecsmatch.TableRow(row), id)
			}
			if err := txn.Set(k, data); err != nil {
				return err
			}
		}
		ek := codec.EncodeEntity(entity)
		ekey := append([]byte(prefixEntity), ek[:]...)
		var loc [8]byte
		binary.BigEndian.PutUint32(loc[0:4], uint32(archId))
		binary.BigEndian.PutUint32(loc[4:8], uint32(row))
		return txn.Set(ekey, loc[:])
	})
	if err != nil {
		return ecs.Entity{}, err
	}

	w.nextIndex++
	w.entities.locations[entity] = ecsmatch.EntityLocation{Archetype: archId, Row: ecsmatch.TableRow(row)}
	return entity, nil
}

func (w *BadgerWorld) tableRowCount(tableId ecsmatch.TableId) int {
	count := 0
	for _, loc := range w.entities.locations {
		arch := w.archetypes.byId[loc.Archetype]
		if len(arch.dense) > 0 && arch.tableId == tableId && int(loc.Row) >= count {
			count = int(loc.Row) + 1
		}
	}
	return count
}

func denseKey(tableId ecsmatch.TableId, row ecsmatch.TableRow, id ecs.ComponentId) []byte {
	var buf bytes.Buffer
	buf.WriteString(prefixDense)
	binary.Write(&buf, binary.BigEndian, uint32(tableId))
	binary.Write(&buf, binary.BigEndian, uint32(row))
	binary.Write(&buf, binary.BigEndian, uint32(id))
	return buf.Bytes()
}

func sparseKey(id ecs.ComponentId, e ecs.Entity) []byte {
	var buf bytes.Buffer
	buf.WriteString(prefixSparse)
	binary.Write(&buf, binary.BigEndian, uint32(id))
	key := codec.EncodeEntity(e)
	buf.Write(key[:])
	return buf.Bytes()
}

type badgerTables struct{ w *BadgerWorld }

func (t *badgerTables) Get(id ecsmatch.TableId) (ecsmatch.Table, bool) {
	return &badgerTable{w: t.w, tableId: id}, true
}

type badgerTable struct {
	w       *BadgerWorld
	tableId ecsmatch.TableId
}

func (t *badgerTable) GetComponent(id ecs.ComponentId, row ecsmatch.TableRow) (unsafe.Pointer, bool) {
	t.w.mu.RLock()
	cc, ok := t.w.codecs[id]
	t.w.mu.RUnlock()
	if !ok {
		return nil, false
	}
	var data []byte
	err := t.w.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(denseKey(t.tableId, row, id))
		if err != nil {
			return err
		}
		return item.Value(func(v []byte) error {
			data = append([]byte(nil), v...)
			return nil
		})
	})
	if err != nil {
		return nil, false
	}
	ptr, err := cc.decode(data)
	if err != nil {
		return nil, false
	}
	return ptr, true
}

type badgerSparseSets struct{ w *BadgerWorld }

func (s *badgerSparseSets) Get(id ecs.ComponentId) (ecsmatch.SparseSet, bool) {
	return &badgerSparseSet{w: s.w, id: id}, true
}

type badgerSparseSet struct {
	w  *BadgerWorld
	id ecs.ComponentId
}

func (s *badgerSparseSet) Get(e ecs.Entity) (unsafe.Pointer, bool) {
	s.w.mu.RLock()
	cc, ok := s.w.codecs[s.id]
	s.w.mu.RUnlock()
	if !ok {
		return nil, false
	}
	var data []byte
	err := s.w.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(sparseKey(s.id, e))
		if err != nil {
			return err
		}
		return item.Value(func(v []byte) error {
			data = append([]byte(nil), v...)
			return nil
		})
	})
	if err != nil {
		return nil, false
	}
	ptr, err := cc.decode(data)
	if err != nil {
		return nil, false
	}
	return ptr, true
}
