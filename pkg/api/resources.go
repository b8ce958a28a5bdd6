package api

import (
	"context"
	"net/url"
)

// CartAPI groups the cart endpoints.
type CartAPI struct {
	doer Doer
}

func NewCartAPI(doer Doer) *CartAPI {
	return &CartAPI{doer: doer}
}

func (a *CartAPI) Fetch(ctx context.Context) Response {
	return a.doer.Get(ctx, "/cart", nil)
}

func (a *CartAPI) AddItem(ctx context.Context, productID string, quantity int, options map[string]string) Response {
	return a.doer.Post(ctx, "/cart/items", map[string]any{
		"product_id": productID,
		"quantity":   quantity,
		"options":    options,
	})
}

func (a *CartAPI) UpdateItem(ctx context.Context, productID string, quantity int) Response {
	return a.doer.Put(ctx, "/cart/items/"+url.PathEscape(productID), map[string]any{"quantity": quantity})
}

func (a *CartAPI) RemoveItem(ctx context.Context, productID string) Response {
	return a.doer.Delete(ctx, "/cart/items/"+url.PathEscape(productID))
}

func (a *CartAPI) Clear(ctx context.Context) Response {
	return a.doer.Delete(ctx, "/cart")
}

func (a *CartAPI) ApplyCoupon(ctx context.Context, code string) Response {
	return a.doer.Post(ctx, "/cart/coupon", map[string]any{"code": code})
}

func (a *CartAPI) RemoveCoupon(ctx context.Context) Response {
	return a.doer.Delete(ctx, "/cart/coupon")
}

func (a *CartAPI) Totals(ctx context.Context) Response {
	return a.doer.Get(ctx, "/cart/totals", nil)
}

func (a *CartAPI) Sync(ctx context.Context, items any) Response {
	return a.doer.Post(ctx, "/cart/sync", map[string]any{"items": items})
}

// WishlistAPI groups the wishlist endpoints.
type WishlistAPI struct {
	doer Doer
}

func NewWishlistAPI(doer Doer) *WishlistAPI {
	return &WishlistAPI{doer: doer}
}

func (a *WishlistAPI) Add(ctx context.Context, productID string) Response {
	return a.doer.Post(ctx, "/wishlist/items", map[string]any{"product_id": productID})
}

func (a *WishlistAPI) Remove(ctx context.Context, productID string) Response {
	return a.doer.Delete(ctx, "/wishlist/items/"+url.PathEscape(productID))
}

// OrdersAPI groups the order endpoints.
type OrdersAPI struct {
	doer Doer
}

func NewOrdersAPI(doer Doer) *OrdersAPI {
	return &OrdersAPI{doer: doer}
}

func (a *OrdersAPI) Create(ctx context.Context, order any) Response {
	return a.doer.Post(ctx, "/orders", order)
}

func (a *OrdersAPI) List(ctx context.Context, query url.Values) Response {
	return a.doer.Get(ctx, "/orders", query)
}

func (a *OrdersAPI) Get(ctx context.Context, id string) Response {
	return a.doer.Get(ctx, "/orders/"+url.PathEscape(id), nil)
}

func (a *OrdersAPI) UpdateStatus(ctx context.Context, id, status string) Response {
	return a.doer.Patch(ctx, "/orders/"+url.PathEscape(id)+"/status", map[string]any{"status": status})
}

func (a *OrdersAPI) Cancel(ctx context.Context, id, reason string) Response {
	return a.doer.Post(ctx, "/orders/"+url.PathEscape(id)+"/cancel", map[string]any{"reason": reason})
}

func (a *OrdersAPI) Tracking(ctx context.Context, id string) Response {
	return a.doer.Get(ctx, "/orders/"+url.PathEscape(id)+"/tracking", nil)
}

func (a *OrdersAPI) Invoice(ctx context.Context, id string) Response {
	return a.doer.Get(ctx, "/orders/"+url.PathEscape(id)+"/invoice", nil)
}

func (a *OrdersAPI) RequestReturn(ctx context.Context, id string, items any, reason string) Response {
	return a.doer.Post(ctx, "/orders/"+url.PathEscape(id)+"/return", map[string]any{
		"items":  items,
		"reason": reason,
	})
}

func (a *OrdersAPI) ReturnStatus(ctx context.Context, returnID string) Response {
	return a.doer.Get(ctx, "/returns/"+url.PathEscape(returnID), nil)
}

func (a *OrdersAPI) Review(ctx context.Context, id string, rating int, review string) Response {
	return a.doer.Post(ctx, "/orders/"+url.PathEscape(id)+"/review", map[string]any{
		"rating": rating,
		"review": review,
	})
}

// ProductsAPI groups the product catalog endpoints.
type ProductsAPI struct {
	doer Doer
}

func NewProductsAPI(doer Doer) *ProductsAPI {
	return &ProductsAPI{doer: doer}
}

func (a *ProductsAPI) List(ctx context.Context, query url.Values) Response {
	return a.doer.Get(ctx, "/products", query)
}

func (a *ProductsAPI) Get(ctx context.Context, id string) Response {
	return a.doer.Get(ctx, "/products/"+url.PathEscape(id), nil)
}

func (a *ProductsAPI) Search(ctx context.Context, q string, query url.Values) Response {
	merged := url.Values{}
	for k, vs := range query {
		merged[k] = vs
	}
	merged.Set("q", q)
	return a.doer.Get(ctx, "/products/search", merged)
}

func (a *ProductsAPI) ByCategory(ctx context.Context, categoryID string, query url.Values) Response {
	return a.doer.Get(ctx, "/products/category/"+url.PathEscape(categoryID), query)
}

func (a *ProductsAPI) Featured(ctx context.Context) Response {
	return a.doer.Get(ctx, "/products/featured", nil)
}

func (a *ProductsAPI) Reviews(ctx context.Context, id string) Response {
	return a.doer.Get(ctx, "/products/"+url.PathEscape(id)+"/reviews", nil)
}

func (a *ProductsAPI) AddReview(ctx context.Context, id string, rating int, comment string) Response {
	return a.doer.Post(ctx, "/products/"+url.PathEscape(id)+"/reviews", map[string]any{
		"rating":  rating,
		"comment": comment,
	})
}

func (a *ProductsAPI) Related(ctx context.Context, id string) Response {
	return a.doer.Get(ctx, "/products/"+url.PathEscape(id)+"/related", nil)
}

func (a *ProductsAPI) Categories(ctx context.Context) Response {
	return a.doer.Get(ctx, "/categories", nil)
}

func (a *ProductsAPI) OnSale(ctx context.Context) Response {
	return a.doer.Get(ctx, "/products/sale", nil)
}

// AuthAPI groups the account and session endpoints.
type AuthAPI struct {
	doer Doer
}

func NewAuthAPI(doer Doer) *AuthAPI {
	return &AuthAPI{doer: doer}
}

func (a *AuthAPI) Register(ctx context.Context, input any) Response {
	return a.doer.Post(ctx, "/auth/register", input)
}

func (a *AuthAPI) Login(ctx context.Context, email, password string) Response {
	return a.doer.Post(ctx, "/auth/login", map[string]any{"email": email, "password": password})
}

func (a *AuthAPI) Logout(ctx context.Context) Response {
	return a.doer.Post(ctx, "/auth/logout", nil)
}

func (a *AuthAPI) Refresh(ctx context.Context, refreshToken string) Response {
	return a.doer.Post(ctx, "/auth/refresh", map[string]any{"refresh_token": refreshToken})
}

func (a *AuthAPI) Profile(ctx context.Context) Response {
	return a.doer.Get(ctx, "/auth/profile", nil)
}

func (a *AuthAPI) UpdateProfile(ctx context.Context, input any) Response {
	return a.doer.Put(ctx, "/auth/profile", input)
}

func (a *AuthAPI) ChangePassword(ctx context.Context, current, next string) Response {
	return a.doer.Put(ctx, "/auth/password", map[string]any{
		"current_password": current,
		"new_password":     next,
	})
}

func (a *AuthAPI) RequestPasswordReset(ctx context.Context, email string) Response {
	return a.doer.Post(ctx, "/auth/password-reset", map[string]any{"email": email})
}

func (a *AuthAPI) ConfirmPasswordReset(ctx context.Context, token, password string) Response {
	return a.doer.Post(ctx, "/auth/password-reset/confirm", map[string]any{
		"token":    token,
		"password": password,
	})
}

func (a *AuthAPI) VerifyEmail(ctx context.Context, token string) Response {
	return a.doer.Post(ctx, "/auth/verify-email", map[string]any{"token": token})
}

func (a *AuthAPI) ResendVerification(ctx context.Context, email string) Response {
	return a.doer.Post(ctx, "/auth/verify-email/resend", map[string]any{"email": email})
}
