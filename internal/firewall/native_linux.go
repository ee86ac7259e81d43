//go:build linux
// +build linux

package firewall

import (
	"fmt"
	"net"
	"sync"

	"github.com/google/nftables"
)

// NFTablesConn abstracts the nftables.Conn operations the native backend
// uses, so it can be mocked in tests.
type NFTablesConn interface {
	ListTables() ([]*nftables.Table, error)
	GetSets(t *nftables.Table) ([]*nftables.Set, error)
	GetSetElements(s *nftables.Set) ([]nftables.SetElement, error)
	SetAddElements(s *nftables.Set, vals []nftables.SetElement) error
	SetDeleteElements(s *nftables.Set, vals []nftables.SetElement) error
	FlushSet(s *nftables.Set)
	Flush() error
}

// RealNFTablesConn wraps the actual nftables.Conn.
type RealNFTablesConn struct {
	conn *nftables.Conn
}

// NewRealNFTablesConn creates a RealNFTablesConn wrapping an nftables.Conn.
func NewRealNFTablesConn(conn *nftables.Conn) *RealNFTablesConn {
	return &RealNFTablesConn{conn: conn}
}

func (r *RealNFTablesConn) ListTables() ([]*nftables.Table, error) {
	return r.conn.ListTables()
}

func (r *RealNFTablesConn) GetSets(t *nftables.Table) ([]*nftables.Set, error) {
	return r.conn.GetSets(t)
}

func (r *RealNFTablesConn) GetSetElements(s *nftables.Set) ([]nftables.SetElement, error) {
	return r.conn.GetSetElements(s)
}

func (r *RealNFTablesConn) SetAddElements(s *nftables.Set, vals []nftables.SetElement) error {
	return r.conn.SetAddElements(s, vals)
}

func (r *RealNFTablesConn) SetDeleteElements(s *nftables.Set, vals []nftables.SetElement) error {
	return r.conn.SetDeleteElements(s, vals)
}

func (r *RealNFTablesConn) FlushSet(s *nftables.Set) {
	r.conn.FlushSet(s)
}

func (r *RealNFTablesConn) Flush() error {
	return r.conn.Flush()
}

// NativeController implements AccessController against the netlink library
// instead of the nft binary. The base ruleset is still applied via the
// script path; this backend only manipulates set membership, which is the
// hot path.
type NativeController struct {
	conn      NFTablesConn
	tableName string

	mu    sync.RWMutex
	table *nftables.Table
	sets  map[string]*nftables.Set
}

// NewNativeController creates a native controller for an existing table.
func NewNativeController(conn NFTablesConn, tableName string) *NativeController {
	return &NativeController{
		conn:      conn,
		tableName: tableName,
		sets:      make(map[string]*nftables.Set),
	}
}

func (c *NativeController) getTable() (*nftables.Table, error) {
	c.mu.RLock()
	t := c.table
	c.mu.RUnlock()
	if t != nil {
		return t, nil
	}

	tables, err := c.conn.ListTables()
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	for _, t := range tables {
		if t.Name == c.tableName && t.Family == nftables.TableFamilyINet {
			c.mu.Lock()
			c.table = t
			c.mu.Unlock()
			return t, nil
		}
	}
	return nil, fmt.Errorf("table %s not found", c.tableName)
}

func (c *NativeController) getSet(name string) (*nftables.Set, error) {
	c.mu.RLock()
	if s, ok := c.sets[name]; ok {
		c.mu.RUnlock()
		return s, nil
	}
	c.mu.RUnlock()

	table, err := c.getTable()
	if err != nil {
		return nil, err
	}
	sets, err := c.conn.GetSets(table)
	if err != nil {
		return nil, fmt.Errorf("failed to get sets: %w", err)
	}
	for _, s := range sets {
		if s.Name == name {
			c.mu.Lock()
			c.sets[name] = s
			c.mu.Unlock()
			return s, nil
		}
	}
	return nil, fmt.Errorf("set %s not found", name)
}

func elementKey(fam Family, ip string) []byte {
	parsed := net.ParseIP(ip)
	if fam == FamilyV4 {
		return parsed.To4()
	}
	return parsed.To16()
}

func (c *NativeController) addElement(setName string, fam Family, ip string) error {
	set, err := c.getSet(setName)
	if err != nil {
		return err
	}
	elems := []nftables.SetElement{{Key: elementKey(fam, ip)}}
	if err := c.conn.SetAddElements(set, elems); err != nil {
		return fmt.Errorf("failed to add element: %w", err)
	}
	return c.conn.Flush()
}

func (c *NativeController) deleteElement(setName string, fam Family, ip string) error {
	set, err := c.getSet(setName)
	if err != nil {
		return err
	}
	elems := []nftables.SetElement{{Key: elementKey(fam, ip)}}
	if err := c.conn.SetDeleteElements(set, elems); err != nil {
		return fmt.Errorf("failed to delete element: %w", err)
	}
	return c.conn.Flush()
}

// OpenPort admits addr to a protected port.
func (c *NativeController) OpenPort(addr string, port uint16) error {
	fam, ip, err := AddrFamily(addr)
	if err != nil {
		return err
	}
	return c.addElement(AllowSet(port, fam), fam, ip)
}

// ClosePort removes addr's admission to a protected port.
func (c *NativeController) ClosePort(addr string, port uint16) error {
	fam, ip, err := AddrFamily(addr)
	if err != nil {
		return err
	}
	return c.deleteElement(AllowSet(port, fam), fam, ip)
}

// BlockAddress drops all traffic from addr.
func (c *NativeController) BlockAddress(addr string) error {
	fam, ip, err := AddrFamily(addr)
	if err != nil {
		return err
	}
	return c.addElement(BannedSet(fam), fam, ip)
}

// UnblockAddress lifts a block placed by BlockAddress.
func (c *NativeController) UnblockAddress(addr string) error {
	fam, ip, err := AddrFamily(addr)
	if err != nil {
		return err
	}
	return c.deleteElement(BannedSet(fam), fam, ip)
}

// IsBlocked reports whether addr is in the banned set.
func (c *NativeController) IsBlocked(addr string) (bool, error) {
	fam, ip, err := AddrFamily(addr)
	if err != nil {
		return false, err
	}
	set, err := c.getSet(BannedSet(fam))
	if err != nil {
		return false, err
	}
	elements, err := c.conn.GetSetElements(set)
	if err != nil {
		return false, fmt.Errorf("failed to get elements: %w", err)
	}
	want := elementKey(fam, ip)
	for _, e := range elements {
		if net.IP(e.Key).Equal(net.IP(want)) {
			return true, nil
		}
	}
	return false, nil
}
