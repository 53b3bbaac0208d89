package corefx

import (
	"context"
	"strings"

	"github.com/vitaliisemenov/corefx/cache"
	"github.com/vitaliisemenov/corefx/ferr"
	"github.com/vitaliisemenov/corefx/fwconfig"
	"github.com/vitaliisemenov/corefx/mail"
	"github.com/vitaliisemenov/corefx/mq"
	"github.com/vitaliisemenov/corefx/objstore"
	"github.com/vitaliisemenov/corefx/reldb"
	"github.com/vitaliisemenov/corefx/search"
	"github.com/vitaliisemenov/corefx/webclient"
)

// ModuleView is the only sanctioned way for business code to obtain
// component handles (spec §4.9): a short-lived value binding a caller to
// one module code plus a language code, so component resolution and error
// localization stay coherent for the duration of one call.
type ModuleView struct {
	moduleCode string
	lang       string
	reg        *Registry
	conn       *reldb.Conn
}

// Inst returns a ModuleView bound to code/lang against the process-wide
// Registry (spec §4.9 "inst(code, lang)").
func Inst(code, lang string) *ModuleView { return Default().Inst(code, lang) }

// Inst is the method form of the package-level Inst, against r.
func (r *Registry) Inst(code, lang string) *ModuleView {
	return &ModuleView{moduleCode: strings.ToLower(code), lang: lang, reg: r}
}

// InstWithDBConn is Inst plus an attached reldb connection resolved via
// RelDBByModuleOrDefault(code), so Begin/Commit/Rollback and the data-access
// methods on the view can be used without a second lookup (spec §4.9
// "inst_with_db_conn(code, lang)").
func InstWithDBConn(ctx context.Context, code, lang string) (*ModuleView, error) {
	return Default().InstWithDBConn(ctx, code, lang)
}

// InstWithDBConn is the method form of the package-level InstWithDBConn,
// against r.
func (r *Registry) InstWithDBConn(ctx context.Context, code, lang string) (*ModuleView, error) {
	db, ok := r.RelDBByModuleOrDefault(code)
	if !ok || db == nil {
		return nil, ferr.ServiceUnavailable("no reldb module available for %q", code)
	}
	return &ModuleView{moduleCode: strings.ToLower(code), lang: lang, reg: r, conn: db.Conn()}, nil
}

// ModuleCode returns the (lower-cased) module code this view is bound to.
func (v *ModuleView) ModuleCode() string { return v.moduleCode }

// Err returns an ExtError scoped to this view's module code and language, so
// every code it builds carries "<ext>" consistently (spec §4.9).
func (v *ModuleView) Err() *ExtError {
	return &ExtError{ext: v.moduleCode, lang: v.lang}
}

// RelDB resolves the reldb family via <family>_by_module_or_default.
func (v *ModuleView) RelDB() (*reldb.Client, bool) { return v.reg.RelDBByModuleOrDefault(v.moduleCode) }

// Cache resolves the cache family via <family>_by_module_or_default.
func (v *ModuleView) Cache() (*cache.Client, bool) { return v.reg.CacheByModuleOrDefault(v.moduleCode) }

// MQ resolves the mq family via <family>_by_module_or_default.
func (v *ModuleView) MQ() (*mq.Client, bool) { return v.reg.MQByModuleOrDefault(v.moduleCode) }

// WebClient resolves the webclient family via <family>_by_module_or_default.
func (v *ModuleView) WebClient() (*webclient.Client, bool) {
	return v.reg.WebClientByModuleOrDefault(v.moduleCode)
}

// Search resolves the search family via <family>_by_module_or_default.
func (v *ModuleView) Search() (*search.Client, bool) { return v.reg.SearchByModuleOrDefault(v.moduleCode) }

// Mail resolves the mail family via <family>_by_module_or_default.
func (v *ModuleView) Mail() (*mail.Client, bool) { return v.reg.MailByModuleOrDefault(v.moduleCode) }

// OS resolves the object-store family via <family>_by_module_or_default.
func (v *ModuleView) OS() (*objstore.Client, bool) { return v.reg.OSByModuleOrDefault(v.moduleCode) }

// Conn returns the reldb connection attached by InstWithDBConn, if any.
func (v *ModuleView) Conn() (*reldb.Conn, bool) { return v.conn, v.conn != nil }

// Conf decodes v's module-scoped custom config via the attached Registry's
// CsConfig (spec §4.9 "conf::<T>()"). Free function: Go methods cannot
// introduce new type parameters.
func Conf[T any](v *ModuleView) (T, error) {
	return RegistryCsConfig[T](v.reg, v.moduleCode)
}

// Begin starts a transaction on the attached connection, replacing it in
// place so subsequent calls through this view see the transaction. It fails
// if the attached connection already holds an open transaction.
func (v *ModuleView) Begin(ctx context.Context) error {
	if v.conn == nil {
		return ferr.Internal("module view has no attached connection; use InstWithDBConn")
	}
	tx, err := v.conn.Begin(ctx)
	if err != nil {
		return err
	}
	v.conn = tx
	return nil
}

// Commit commits the attached connection's transaction.
func (v *ModuleView) Commit(ctx context.Context) error {
	if v.conn == nil {
		return ferr.Internal("module view has no attached connection; use InstWithDBConn")
	}
	return v.conn.Commit(ctx)
}

// Rollback rolls back the attached connection's transaction.
func (v *ModuleView) Rollback(ctx context.Context) error {
	if v.conn == nil {
		return ferr.Internal("module view has no attached connection; use InstWithDBConn")
	}
	return v.conn.Rollback(ctx)
}

// ExtError builds ferr.Error values scoped to one module ("ext") and
// language, producing codes of the form "<prefix>-<ext>-<obj>-<op>" with
// messages resolved through the locale tables (spec §4.9, §4.10).
type ExtError struct {
	ext  string
	lang string
}

func (e *ExtError) build(prefix, obj, op, msg, localeCode string) *ferr.Error {
	resolved := msg
	if localeCode != "" {
		resolved = fwconfig.GetMessage(localeCode, msg, e.lang)
	}
	fe := ferr.WithExt(prefix, e.ext, obj, op, "%s", resolved)
	fe.LocaleKey = localeCode
	return fe
}

// BadRequest builds a "400-<ext>-<obj>-<op>" error.
func (e *ExtError) BadRequest(obj, op, msg, localeCode string) *ferr.Error {
	return e.build("400", obj, op, msg, localeCode)
}

// Unauthorized builds a "401-<ext>-<obj>-<op>" error.
func (e *ExtError) Unauthorized(obj, op, msg, localeCode string) *ferr.Error {
	return e.build("401", obj, op, msg, localeCode)
}

// Forbidden builds a "403-<ext>-<obj>-<op>" error.
func (e *ExtError) Forbidden(obj, op, msg, localeCode string) *ferr.Error {
	return e.build("403", obj, op, msg, localeCode)
}

// NotFound builds a "404-<ext>-<obj>-<op>" error.
func (e *ExtError) NotFound(obj, op, msg, localeCode string) *ferr.Error {
	return e.build("404", obj, op, msg, localeCode)
}

// Conflict builds a "409-<ext>-<obj>-<op>" error.
func (e *ExtError) Conflict(obj, op, msg, localeCode string) *ferr.Error {
	return e.build("409", obj, op, msg, localeCode)
}

// Internal builds a "500-<ext>-<obj>-<op>" error.
func (e *ExtError) Internal(obj, op, msg, localeCode string) *ferr.Error {
	return e.build("500", obj, op, msg, localeCode)
}
