package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"bank-ledger/pkg/ledger"
	"bank-ledger/pkg/readcache"
)

// accountView is an account enriched with its owner record.
type accountView struct {
	*ledger.Account
	Owner *ledger.User `json:"owner"`
}

// transactionView is a transaction enriched with both accounts and owners.
type transactionView struct {
	*ledger.Transaction
	SourceAccount      *accountView `json:"sourceAccount"`
	DestinationAccount *accountView `json:"destinationAccount"`
}

func parseID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	return id, err == nil && id > 0
}

func decodeBody(r *http.Request, dst any) bool {
	return json.NewDecoder(r.Body).Decode(dst) == nil
}

func requiredFields(fields ...string) string {
	quoted := make([]string, len(fields))
	for i, f := range fields {
		quoted[i] = "'" + f + "'"
	}
	return "field " + strings.Join(quoted, ", ") + " are required"
}

// --- users ---

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name  string `json:"name"`
		Email string `json:"email"`
	}
	if !decodeBody(r, &req) || req.Name == "" || req.Email == "" {
		respondError(w, http.StatusBadRequest, requiredFields("name", "email"))
		return
	}

	user, err := s.deps.Users.Create(r.Context(), req.Name, req.Email)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	respond(w, http.StatusCreated, "successfully created new user record", user)
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.deps.Users.List(r.Context(), r.URL.Query().Get("search"))
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	respond(w, http.StatusOK, "successfully fetched "+strconv.Itoa(len(users))+" user records", users)
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "id param is required with the value of an integer")
		return
	}

	user, err := s.deps.Users.Get(r.Context(), id)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	respond(w, http.StatusOK, "successfully fetched user record", user)
}

// --- accounts ---

func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	var req struct {
		OwnerID       int64  `json:"ownerId"`
		BankName      string `json:"bankName"`
		AccountNumber string `json:"accountNumber"`
		Balance       int64  `json:"balance"`
	}
	if !decodeBody(r, &req) || req.OwnerID == 0 || req.BankName == "" || req.AccountNumber == "" {
		respondError(w, http.StatusBadRequest, requiredFields("ownerId", "bankName", "accountNumber"))
		return
	}

	account, err := s.deps.Accounts.Create(r.Context(), ledger.CreateAccountParams{
		OwnerID:        req.OwnerID,
		BankName:       req.BankName,
		AccountNumber:  req.AccountNumber,
		InitialBalance: req.Balance,
	})
	if err != nil {
		writeError(w, s.logger, err)
		return
	}

	view, err := s.accountView(r.Context(), account)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	respond(w, http.StatusCreated, "successfully created new account record", view)
}

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := s.deps.Accounts.List(r.Context())
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	respond(w, http.StatusOK, "successfully fetched "+strconv.Itoa(len(accounts))+" account records", accounts)
}

func (s *Server) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "id param is required with the value of an integer")
		return
	}

	key := readcache.AccountKey(id)
	if cached, ok := s.cacheGet(r.Context(), key); ok {
		respond(w, http.StatusOK, "successfully fetched account record", cached)
		return
	}

	account, err := s.deps.Accounts.Get(r.Context(), id)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	view, err := s.accountView(r.Context(), account)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}

	s.cacheSet(r.Context(), key, view)
	respond(w, http.StatusOK, "successfully fetched account record", view)
}

// --- transactions ---

func (s *Server) handleTransfer(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SourceAccountID      int64 `json:"sourceAccountId"`
		DestinationAccountID int64 `json:"destinationAccountId"`
		Amount               int64 `json:"amount"`
	}
	if !decodeBody(r, &req) || req.SourceAccountID == 0 || req.DestinationAccountID == 0 || req.Amount == 0 {
		respondError(w, http.StatusBadRequest,
			requiredFields("sourceAccountId", "destinationAccountId", "amount"))
		return
	}

	result, err := s.deps.Engine.Transfer(r.Context(), req.SourceAccountID, req.DestinationAccountID, req.Amount)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}

	// Display caches now hold stale balances for both accounts.
	s.cacheDelete(r.Context(), readcache.AccountKey(req.SourceAccountID))
	s.cacheDelete(r.Context(), readcache.AccountKey(req.DestinationAccountID))

	source, err := s.accountView(r.Context(), result.Source)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	destination, err := s.accountView(r.Context(), result.Destination)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}

	respond(w, http.StatusCreated, "successfully created new transaction record", transactionView{
		Transaction:        result.Transaction,
		SourceAccount:      source,
		DestinationAccount: destination,
	})
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	var filter ledger.TransactionFilter
	if raw := r.URL.Query().Get("accountId"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			respondError(w, http.StatusBadRequest, "accountId param must be an integer")
			return
		}
		filter.AccountID = &id
	}

	transactions, err := s.deps.Engine.Transactions(r.Context(), filter)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	respond(w, http.StatusOK,
		"successfully fetched "+strconv.Itoa(len(transactions))+" transaction records", transactions)
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "id param is required with the value of an integer")
		return
	}

	key := readcache.TransactionKey(id)
	if cached, ok := s.cacheGet(r.Context(), key); ok {
		respond(w, http.StatusOK, "successfully fetched transaction record", cached)
		return
	}

	tx, err := s.deps.Engine.Transaction(r.Context(), id)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}

	view := transactionView{Transaction: tx}
	if source, err := s.loadAccountView(r.Context(), tx.SourceAccountID); err == nil {
		view.SourceAccount = source
	}
	if destination, err := s.loadAccountView(r.Context(), tx.DestinationAccountID); err == nil {
		view.DestinationAccount = destination
	}

	s.cacheSet(r.Context(), key, view)
	respond(w, http.StatusOK, "successfully fetched transaction record", view)
}

// --- view and cache helpers ---

func (s *Server) accountView(ctx context.Context, account *ledger.Account) (*accountView, error) {
	owner, err := s.deps.Users.Get(ctx, account.OwnerID)
	if err != nil {
		return nil, err
	}
	return &accountView{Account: account, Owner: owner}, nil
}

func (s *Server) loadAccountView(ctx context.Context, id int64) (*accountView, error) {
	account, err := s.deps.Accounts.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.accountView(ctx, account)
}

// cacheGet returns the cached snapshot as raw JSON. Cache failures are treated
// as misses; display reads tolerate staleness, not broken responses.
func (s *Server) cacheGet(ctx context.Context, key string) (json.RawMessage, bool) {
	if s.deps.Cache == nil {
		return nil, false
	}
	data, err := s.deps.Cache.Get(ctx, key)
	if err != nil {
		return nil, false
	}
	return json.RawMessage(data), true
}

func (s *Server) cacheSet(ctx context.Context, key string, view any) {
	if s.deps.Cache == nil {
		return
	}
	data, err := json.Marshal(view)
	if err != nil {
		return
	}
	if err := s.deps.Cache.Set(ctx, key, data, s.config.CacheTTL); err != nil {
		s.logger.Warn("cache set failed", zap.String("key", key), zap.Error(err))
	}
}

func (s *Server) cacheDelete(ctx context.Context, key string) {
	if s.deps.Cache == nil {
		return
	}
	if err := s.deps.Cache.Delete(ctx, key); err != nil {
		s.logger.Warn("cache invalidation failed", zap.String("key", key), zap.Error(err))
	}
}
