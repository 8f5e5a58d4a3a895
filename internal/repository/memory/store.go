// Package memory provides an in-process repository.Store. Transactions run one at a time
// against a private copy of the data which replaces the live copy only on success.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/Ahmat91/Ecommerce-ALX/internal/entity"
	"github.com/Ahmat91/Ecommerce-ALX/internal/repository"
)

type state struct {
	categories map[string]entity.Category
	products   map[string]entity.Product
	cartItems  map[string]entity.CartItem
	orders     map[string]entity.Order
	// orderSeq keeps insertion order for stable listings.
	orderSeq map[string]int
	seq      int
}

func newState() *state {
	return &state{
		categories: map[string]entity.Category{},
		products:   map[string]entity.Product{},
		cartItems:  map[string]entity.CartItem{},
		orders:     map[string]entity.Order{},
		orderSeq:   map[string]int{},
	}
}

// clone copies the maps. Stored values are never mutated in place, so sharing them is safe.
func (s *state) clone() *state {
	c := &state{
		categories: make(map[string]entity.Category, len(s.categories)),
		products:   make(map[string]entity.Product, len(s.products)),
		cartItems:  make(map[string]entity.CartItem, len(s.cartItems)),
		orders:     make(map[string]entity.Order, len(s.orders)),
		orderSeq:   make(map[string]int, len(s.orderSeq)),
		seq:        s.seq,
	}
	for k, v := range s.categories {
		c.categories[k] = v
	}
	for k, v := range s.products {
		c.products[k] = v
	}
	for k, v := range s.cartItems {
		c.cartItems[k] = v
	}
	for k, v := range s.orders {
		c.orders[k] = v
	}
	for k, v := range s.orderSeq {
		c.orderSeq[k] = v
	}
	return c
}

func (s *state) next() int {
	s.seq++
	return s.seq
}

// Store is a repository.Store held in memory.
type Store struct {
	mu sync.Mutex
	st *state
}

var _ repository.Store = (*Store)(nil)

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{st: newState()}
}

func (s *Store) run(fn func(st *state) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.st)
}

func (s *Store) Categories() repository.CategoryRepository { return categoryRepository{run: s.run} }
func (s *Store) Products() repository.ProductRepository    { return productRepository{run: s.run} }
func (s *Store) Carts() repository.CartRepository          { return cartRepository{run: s.run} }
func (s *Store) Orders() repository.OrderRepository        { return orderRepository{run: s.run} }

func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

// RunInTx holds the store lock for the whole of fn, which makes transactions serializable.
func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context, tx repository.Repositories) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	work := s.st.clone()
	if err := fn(ctx, txRepositories{st: work}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.st = work
	return nil
}

type txRepositories struct {
	st *state
}

func (t txRepositories) run(fn func(st *state) error) error { return fn(t.st) }

func (t txRepositories) Categories() repository.CategoryRepository {
	return categoryRepository{run: t.run}
}
func (t txRepositories) Products() repository.ProductRepository { return productRepository{run: t.run} }
func (t txRepositories) Carts() repository.CartRepository       { return cartRepository{run: t.run} }
func (t txRepositories) Orders() repository.OrderRepository     { return orderRepository{run: t.run} }

type runner func(fn func(st *state) error) error

// --- Categories ---

type categoryRepository struct {
	run runner
}

func (r categoryRepository) List(ctx context.Context) ([]entity.Category, error) {
	out := []entity.Category{}
	err := r.run(func(st *state) error {
		for _, c := range st.categories {
			out = append(out, c)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, err
}

func (r categoryRepository) Get(ctx context.Context, id string) (*entity.Category, error) {
	var out *entity.Category
	err := r.run(func(st *state) error {
		c, ok := st.categories[id]
		if !ok {
			return entity.ErrNotFound
		}
		out = &c
		return nil
	})
	return out, err
}

func nameTaken(st *state, id, name string) bool {
	for _, c := range st.categories {
		if c.ID != id && c.Name == name {
			return true
		}
	}
	return false
}

func (r categoryRepository) Create(ctx context.Context, c *entity.Category) error {
	return r.run(func(st *state) error {
		if nameTaken(st, c.ID, c.Name) {
			return entity.ErrConflict
		}
		st.categories[c.ID] = *c
		return nil
	})
}

func (r categoryRepository) Update(ctx context.Context, c *entity.Category) error {
	return r.run(func(st *state) error {
		if _, ok := st.categories[c.ID]; !ok {
			return entity.ErrNotFound
		}
		if nameTaken(st, c.ID, c.Name) {
			return entity.ErrConflict
		}
		st.categories[c.ID] = *c
		// Products carry a denormalised copy of their category.
		for id, p := range st.products {
			if p.CategoryID == c.ID {
				p.Category = *c
				st.products[id] = p
			}
		}
		return nil
	})
}

func (r categoryRepository) Delete(ctx context.Context, id string) error {
	return r.run(func(st *state) error {
		if _, ok := st.categories[id]; !ok {
			return entity.ErrNotFound
		}
		var doomed []string
		for pid, p := range st.products {
			if p.CategoryID == id {
				if referencedByOrders(st, pid) {
					return entity.ErrProductInUse
				}
				doomed = append(doomed, pid)
			}
		}
		for _, pid := range doomed {
			deleteProduct(st, pid)
		}
		delete(st.categories, id)
		return nil
	})
}

// --- Products ---

type productRepository struct {
	run runner
}

func (r productRepository) List(ctx context.Context, f entity.ProductFilter) ([]entity.Product, error) {
	out := []entity.Product{}
	search := strings.ToLower(f.Search)
	err := r.run(func(st *state) error {
		for _, p := range st.products {
			if f.CategoryID != "" && p.CategoryID != f.CategoryID {
				continue
			}
			if f.StockQuantity != nil && p.StockQuantity != *f.StockQuantity {
				continue
			}
			if f.InStock != nil && (p.StockQuantity > 0) != *f.InStock {
				continue
			}
			if search != "" &&
				!strings.Contains(strings.ToLower(p.Name), search) &&
				!strings.Contains(strings.ToLower(p.Description), search) &&
				!strings.Contains(strings.ToLower(p.Category.Name), search) {
				continue
			}
			out = append(out, p)
		}
		return nil
	})
	sortProducts(out, f.Ordering)
	return out, err
}

func sortProducts(ps []entity.Product, o entity.ProductOrdering) {
	compare := func(a, b entity.Product) int {
		switch o.Field() {
		case entity.OrderByPrice:
			return a.Price.Cmp(b.Price)
		case entity.OrderByStock:
			return a.StockQuantity - b.StockQuantity
		case entity.OrderByCreatedDate:
			return a.CreatedDate.Compare(b.CreatedDate)
		default:
			return strings.Compare(a.Name, b.Name)
		}
	}
	sort.SliceStable(ps, func(i, j int) bool {
		c := compare(ps[i], ps[j])
		if o.Descending() {
			c = -c
		}
		if c == 0 {
			return ps[i].ID < ps[j].ID
		}
		return c < 0
	})
}

func (r productRepository) Get(ctx context.Context, id string) (*entity.Product, error) {
	var out *entity.Product
	err := r.run(func(st *state) error {
		p, ok := st.products[id]
		if !ok {
			return entity.ErrNotFound
		}
		out = &p
		return nil
	})
	return out, err
}

func (r productRepository) put(st *state, p *entity.Product) error {
	c, ok := st.categories[p.CategoryID]
	if !ok {
		return entity.NewValidationError("category_id", "category %s does not exist", p.CategoryID)
	}
	stored := *p
	stored.Category = c
	st.products[p.ID] = stored
	return nil
}

func (r productRepository) Create(ctx context.Context, p *entity.Product) error {
	return r.run(func(st *state) error {
		return r.put(st, p)
	})
}

func (r productRepository) Update(ctx context.Context, p *entity.Product) error {
	return r.run(func(st *state) error {
		old, ok := st.products[p.ID]
		if !ok {
			return entity.ErrNotFound
		}
		updated := *p
		updated.CreatedDate = old.CreatedDate
		return r.put(st, &updated)
	})
}

func referencedByOrders(st *state, productID string) bool {
	for _, o := range st.orders {
		for _, it := range o.Items {
			if it.ProductID == productID {
				return true
			}
		}
	}
	return false
}

func deleteProduct(st *state, id string) {
	delete(st.products, id)
	for cid, ci := range st.cartItems {
		if ci.ProductID == id {
			delete(st.cartItems, cid)
		}
	}
}

func (r productRepository) Delete(ctx context.Context, id string) error {
	return r.run(func(st *state) error {
		if _, ok := st.products[id]; !ok {
			return entity.ErrNotFound
		}
		if referencedByOrders(st, id) {
			return entity.ErrProductInUse
		}
		deleteProduct(st, id)
		return nil
	})
}

func (r productRepository) DecrementStock(ctx context.Context, id string, quantity int) (int, error) {
	var left int
	err := r.run(func(st *state) error {
		p, ok := st.products[id]
		if !ok || p.StockQuantity < quantity {
			return repository.ErrStockGuard
		}
		p.StockQuantity -= quantity
		st.products[id] = p
		left = p.StockQuantity
		return nil
	})
	return left, err
}

// adjust computes every new stock level before writing any, so a rejected row leaves the batch untouched.
func (r productRepository) adjust(ids []string, apply func(id string, stock int) (int, bool, error)) ([]entity.StockAdjustment, error) {
	var out []entity.StockAdjustment
	err := r.run(func(st *state) error {
		seen := map[string]bool{}
		for _, id := range ids {
			p, ok := st.products[id]
			if !ok || seen[id] {
				continue
			}
			seen[id] = true
			next, clamped, err := apply(id, p.StockQuantity)
			if err != nil {
				return err
			}
			out = append(out, entity.StockAdjustment{ProductID: id, Previous: p.StockQuantity, Current: next, Clamped: clamped})
		}
		for _, a := range out {
			p := st.products[a.ProductID]
			p.StockQuantity = a.Current
			st.products[a.ProductID] = p
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r productRepository) IncreaseStock(ctx context.Context, ids []string, amount int) ([]entity.StockAdjustment, error) {
	return r.adjust(ids, func(id string, stock int) (int, bool, error) {
		if stock > entity.MaxStock-amount {
			return 0, false, entity.NewStockOverflowError(id)
		}
		return stock + amount, false, nil
	})
}

func (r productRepository) DecreaseStockClamped(ctx context.Context, ids []string, amount int) ([]entity.StockAdjustment, error) {
	return r.adjust(ids, func(_ string, stock int) (int, bool, error) {
		if stock >= amount {
			return stock - amount, false, nil
		}
		return 0, true, nil
	})
}

// --- Cart ---

type cartRepository struct {
	run runner
}

func (r cartRepository) lines(st *state, userID string) []entity.CartLine {
	out := []entity.CartLine{}
	for _, ci := range st.cartItems {
		if ci.UserID != userID {
			continue
		}
		out = append(out, entity.CartLine{Item: ci, Product: st.products[ci.ProductID]})
	}
	return out
}

func (r cartRepository) ListByUser(ctx context.Context, userID string) ([]entity.CartLine, error) {
	var out []entity.CartLine
	err := r.run(func(st *state) error {
		out = r.lines(st, userID)
		sort.Slice(out, func(i, j int) bool {
			if out[i].Product.Name != out[j].Product.Name {
				return out[i].Product.Name < out[j].Product.Name
			}
			return out[i].Item.ID < out[j].Item.ID
		})
		return nil
	})
	return out, err
}

func (r cartRepository) GetForUser(ctx context.Context, userID, id string) (*entity.CartLine, error) {
	var out *entity.CartLine
	err := r.run(func(st *state) error {
		ci, ok := st.cartItems[id]
		if !ok || ci.UserID != userID {
			return entity.ErrNotFound
		}
		out = &entity.CartLine{Item: ci, Product: st.products[ci.ProductID]}
		return nil
	})
	return out, err
}

func (r cartRepository) Upsert(ctx context.Context, item *entity.CartItem) error {
	return r.run(func(st *state) error {
		if _, ok := st.products[item.ProductID]; !ok {
			return entity.NewValidationError("product_id", "product %s does not exist", item.ProductID)
		}
		for id, ci := range st.cartItems {
			if ci.UserID == item.UserID && ci.ProductID == item.ProductID {
				ci.Quantity = item.Quantity
				st.cartItems[id] = ci
				item.ID = id
				return nil
			}
		}
		st.cartItems[item.ID] = *item
		return nil
	})
}

func (r cartRepository) DeleteForUser(ctx context.Context, userID, id string) error {
	return r.run(func(st *state) error {
		ci, ok := st.cartItems[id]
		if !ok || ci.UserID != userID {
			return entity.ErrNotFound
		}
		delete(st.cartItems, id)
		return nil
	})
}

func (r cartRepository) LockForCheckout(ctx context.Context, userID string) ([]entity.CartLine, error) {
	var out []entity.CartLine
	err := r.run(func(st *state) error {
		out = r.lines(st, userID)
		sort.Slice(out, func(i, j int) bool { return out[i].Product.ID < out[j].Product.ID })
		return nil
	})
	return out, err
}

func (r cartRepository) ClearForUser(ctx context.Context, userID string) (int, error) {
	n := 0
	err := r.run(func(st *state) error {
		for id, ci := range st.cartItems {
			if ci.UserID == userID {
				delete(st.cartItems, id)
				n++
			}
		}
		return nil
	})
	return n, err
}

// --- Orders ---

type orderRepository struct {
	run runner
}

func (r orderRepository) Create(ctx context.Context, o *entity.Order) error {
	return r.run(func(st *state) error {
		for _, it := range o.Items {
			if _, ok := st.products[it.ProductID]; !ok {
				return entity.NewValidationError("product_id", "product %s does not exist", it.ProductID)
			}
		}
		stored := *o
		stored.Items = append([]entity.OrderItem(nil), o.Items...)
		st.orders[o.ID] = stored
		st.orderSeq[o.ID] = st.next()
		return nil
	})
}

func (r orderRepository) collect(st *state, keep func(entity.Order) bool) []entity.Order {
	out := []entity.Order{}
	for _, o := range st.orders {
		if keep(o) {
			o.Items = append([]entity.OrderItem(nil), o.Items...)
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return st.orderSeq[out[i].ID] > st.orderSeq[out[j].ID]
	})
	return out
}

func (r orderRepository) ListByUser(ctx context.Context, userID string) ([]entity.Order, error) {
	var out []entity.Order
	err := r.run(func(st *state) error {
		out = r.collect(st, func(o entity.Order) bool { return o.UserID == userID })
		return nil
	})
	return out, err
}

func (r orderRepository) GetForUser(ctx context.Context, userID, id string) (*entity.Order, error) {
	o, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.UserID != userID {
		return nil, entity.ErrNotFound
	}
	return o, nil
}

func (r orderRepository) List(ctx context.Context, f entity.OrderFilter) ([]entity.Order, error) {
	var out []entity.Order
	err := r.run(func(st *state) error {
		out = r.collect(st, func(o entity.Order) bool { return f.Status == "" || o.Status == f.Status })
		return nil
	})
	return out, err
}

func (r orderRepository) Get(ctx context.Context, id string) (*entity.Order, error) {
	var out *entity.Order
	err := r.run(func(st *state) error {
		o, ok := st.orders[id]
		if !ok {
			return entity.ErrNotFound
		}
		o.Items = append([]entity.OrderItem(nil), o.Items...)
		out = &o
		return nil
	})
	return out, err
}

func (r orderRepository) UpdateStatus(ctx context.Context, id string, status entity.OrderStatus) error {
	return r.run(func(st *state) error {
		o, ok := st.orders[id]
		if !ok {
			return entity.ErrNotFound
		}
		o.Status = status
		st.orders[id] = o
		return nil
	})
}
