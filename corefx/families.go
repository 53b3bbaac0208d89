package corefx

import (
	"github.com/vitaliisemenov/corefx/cache"
	"github.com/vitaliisemenov/corefx/mail"
	"github.com/vitaliisemenov/corefx/mq"
	"github.com/vitaliisemenov/corefx/objstore"
	"github.com/vitaliisemenov/corefx/reldb"
	"github.com/vitaliisemenov/corefx/search"
	"github.com/vitaliisemenov/corefx/webclient"
)

// Per-family accessors implement spec §4.1's "<family>_by_module_or_default"
// and "<family>()" traits: module resolution falls back to the family's
// default instance, and the bare form is shorthand for resolving "".
// Each is generated by hand rather than with a generic helper because Go
// cannot parameterize a method name by a type, and the families differ in
// element type.

func (r *Registry) RelDBByModuleOrDefault(code string) (*reldb.Client, bool) {
	return r.db.byModuleOrDefault(code)
}

func (r *Registry) RelDB() (*reldb.Client, bool) { return r.db.get("") }

func (r *Registry) CacheByModuleOrDefault(code string) (*cache.Client, bool) {
	return r.cacheM.byModuleOrDefault(code)
}

func (r *Registry) Cache() (*cache.Client, bool) { return r.cacheM.get("") }

func (r *Registry) MQByModuleOrDefault(code string) (*mq.Client, bool) {
	return r.mqM.byModuleOrDefault(code)
}

func (r *Registry) MQ() (*mq.Client, bool) { return r.mqM.get("") }

func (r *Registry) MailByModuleOrDefault(code string) (*mail.Client, bool) {
	return r.mailM.byModuleOrDefault(code)
}

func (r *Registry) Mail() (*mail.Client, bool) { return r.mailM.get("") }

func (r *Registry) OSByModuleOrDefault(code string) (*objstore.Client, bool) {
	return r.osM.byModuleOrDefault(code)
}

func (r *Registry) OS() (*objstore.Client, bool) { return r.osM.get("") }

func (r *Registry) SearchByModuleOrDefault(code string) (*search.Client, bool) {
	return r.searchM.byModuleOrDefault(code)
}

func (r *Registry) Search() (*search.Client, bool) { return r.searchM.get("") }

func (r *Registry) WebClientByModuleOrDefault(code string) (*webclient.Client, bool) {
	return r.webClient.byModuleOrDefault(code)
}

func (r *Registry) WebClient() (*webclient.Client, bool) { return r.webClient.get("") }

func (r *Registry) ClusterByModuleOrDefault(code string) (*ClusterClient, bool) {
	return r.cluster.byModuleOrDefault(code)
}

func (r *Registry) Cluster() (*ClusterClient, bool) { return r.cluster.get("") }

// RelDBByModuleOrDefault etc. against the process-wide singleton.
func RelDBByModuleOrDefault(code string) (*reldb.Client, bool) {
	return Default().RelDBByModuleOrDefault(code)
}

func RelDB() (*reldb.Client, bool) { return Default().RelDB() }

func CacheByModuleOrDefault(code string) (*cache.Client, bool) {
	return Default().CacheByModuleOrDefault(code)
}

func Cache() (*cache.Client, bool) { return Default().Cache() }

func MQByModuleOrDefault(code string) (*mq.Client, bool) { return Default().MQByModuleOrDefault(code) }

func MQ() (*mq.Client, bool) { return Default().MQ() }

func MailByModuleOrDefault(code string) (*mail.Client, bool) {
	return Default().MailByModuleOrDefault(code)
}

func Mail() (*mail.Client, bool) { return Default().Mail() }

func OSByModuleOrDefault(code string) (*objstore.Client, bool) {
	return Default().OSByModuleOrDefault(code)
}

func OS() (*objstore.Client, bool) { return Default().OS() }

func SearchByModuleOrDefault(code string) (*search.Client, bool) {
	return Default().SearchByModuleOrDefault(code)
}

func Search() (*search.Client, bool) { return Default().Search() }

func WebClientByModuleOrDefault(code string) (*webclient.Client, bool) {
	return Default().WebClientByModuleOrDefault(code)
}

func WebClient() (*webclient.Client, bool) { return Default().WebClient() }
