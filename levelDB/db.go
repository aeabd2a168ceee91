package levelDB

import (
	"errors"

	"github.com/cloudflare/cfssl/log"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/iterator"
	"github.com/syndtr/goleveldb/leveldb/storage"
	lvutil "github.com/syndtr/goleveldb/leveldb/util"
)

// ErrNotFound 记录不存在
var ErrNotFound = leveldb.ErrNotFound

// Reader 只读访问，DB、Tx、Snapshot 都实现了该接口
type Reader interface {
	Get(key string) ([]byte, error)
	Has(key string) (bool, error)
	Iterate(prefix string, fn func(key string, value []byte) error) error
}

// ReadWriter 读写访问
type ReadWriter interface {
	Reader
	Put(key string, value []byte) error
	Delete(key string) error
}

// DB 对 leveldb 的简单封装
type DB struct {
	db *leveldb.DB
}

// Open 打开（或创建）磁盘上的数据库
func Open(path string) (*DB, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		log.Error("db init err:", err)
		return nil, err
	}
	return &DB{db: db}, nil
}

// OpenMem 打开内存数据库，测试用
func OpenMem() (*DB, error) {
	db, err := leveldb.Open(storage.NewMemStorage(), nil)
	if err != nil {
		return nil, err
	}
	return &DB{db: db}, nil
}

func (d *DB) Close() error {
	return d.db.Close()
}

func (d *DB) Get(key string) ([]byte, error) {
	return d.db.Get([]byte(key), nil)
}

func (d *DB) Has(key string) (bool, error) {
	return d.db.Has([]byte(key), nil)
}

func (d *DB) Put(key string, value []byte) error {
	err := d.db.Put([]byte(key), value, nil)
	if err != nil {
		log.Error("db put err:", err)
	}
	return err
}

func (d *DB) Delete(key string) error {
	err := d.db.Delete([]byte(key), nil)
	if err != nil {
		log.Error("db delete err:", err)
	}
	return err
}

func (d *DB) Iterate(prefix string, fn func(key string, value []byte) error) error {
	return iterate(d.db.NewIterator(lvutil.BytesPrefix([]byte(prefix)), nil), fn)
}

// Update 在一个事务中执行 fn，fn 返回 nil 时提交，否则丢弃全部写入。
// leveldb 同一时刻只允许一个打开的事务，其余的 Update 和写操作会阻塞到事务结束。
func (d *DB) Update(fn func(tx *Tx) error) error {
	tr, err := d.db.OpenTransaction()
	if err != nil {
		return err
	}
	// 提交后 Discard 不起作用；fn panic 时也能释放写锁
	defer tr.Discard()
	if err := fn(&Tx{tr: tr}); err != nil {
		return err
	}
	if err := tr.Commit(); err != nil {
		log.Errorf("db commit err: %s", err)
		return err
	}
	return nil
}

// View 在同一个快照上执行只读操作
func (d *DB) View(fn func(r Reader) error) error {
	snap, err := d.db.GetSnapshot()
	if err != nil {
		return err
	}
	defer snap.Release()
	return fn(&Snapshot{snap: snap})
}

// Tx 事务内的读写，读操作可以看到本事务尚未提交的写入
type Tx struct {
	tr *leveldb.Transaction
}

func (t *Tx) Get(key string) ([]byte, error) {
	return t.tr.Get([]byte(key), nil)
}

func (t *Tx) Has(key string) (bool, error) {
	return t.tr.Has([]byte(key), nil)
}

func (t *Tx) Put(key string, value []byte) error {
	return t.tr.Put([]byte(key), value, nil)
}

func (t *Tx) Delete(key string) error {
	return t.tr.Delete([]byte(key), nil)
}

func (t *Tx) Iterate(prefix string, fn func(key string, value []byte) error) error {
	return iterate(t.tr.NewIterator(lvutil.BytesPrefix([]byte(prefix)), nil), fn)
}

// Snapshot 只读快照
type Snapshot struct {
	snap *leveldb.Snapshot
}

func (s *Snapshot) Get(key string) ([]byte, error) {
	return s.snap.Get([]byte(key), nil)
}

func (s *Snapshot) Has(key string) (bool, error) {
	return s.snap.Has([]byte(key), nil)
}

func (s *Snapshot) Iterate(prefix string, fn func(key string, value []byte) error) error {
	return iterate(s.snap.NewIterator(lvutil.BytesPrefix([]byte(prefix)), nil), fn)
}

func iterate(it iterator.Iterator, fn func(key string, value []byte) error) error {
	defer it.Release()
	for it.Next() {
		// 迭代器复用底层 buffer，交给 fn 之前先拷贝
		value := append([]byte(nil), it.Value()...)
		if err := fn(string(it.Key()), value); err != nil {
			return err
		}
	}
	return it.Error()
}

// IsNotFound 判断是否为记录不存在
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
