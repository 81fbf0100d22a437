package app

// Command はアプリケーションの起動モードを表す。
type Command string

const (
	// CommandWeb はユーザー向けWebサービスモードで起動することを示す。
	CommandWeb Command = "web"
	// CommandAPI はリソースAPI（記事サービス）モードで起動することを示す。
	CommandAPI Command = "api"
	// CommandMigrate はデータベースマイグレーションを実行することを示す。
	CommandMigrate Command = "migrate"
	// CommandHealthcheck はヘルスチェックを実行することを示す。
	// distroless環境でのDockerヘルスチェック用。
	CommandHealthcheck Command = "healthcheck"
)

// ParseCommand はコマンドライン引数からサブコマンドを解析する。
// 引数が空またはサポート外のコマンドの場合はCommandWebを返す。
func ParseCommand(args []string) Command {
	if len(args) == 0 {
		return CommandWeb
	}

	switch args[0] {
	case "web":
		return CommandWeb
	case "api":
		return CommandAPI
	case "migrate":
		return CommandMigrate
	case "healthcheck":
		return CommandHealthcheck
	default:
		return CommandWeb
	}
}
