// Package version хранит сведения о сборке, которые выставляются через -ldflags:
//
//	go build -ldflags "-X github.com/vladislavdragonenkov/pedidos/internal/version.version=v1.2.0"
package version

import "fmt"

const serviceName = "pedidos-service"

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Info возвращает версию, коммит и дату сборки.
func Info() (v, c, d string) { return version, commit, date }

func GetVersion() string { return version }

func GetCommit() string { return commit }

func GetDate() string { return date }

// UserAgent — значение заголовка User-Agent для исходящих HTTP-запросов (loadtest).
func UserAgent() string {
	return fmt.Sprintf("%s/%s", serviceName, version)
}

func String() string {
	return fmt.Sprintf("%s version=%s commit=%s date=%s", serviceName, version, commit, date)
}
