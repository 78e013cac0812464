package dialect

type TiDB struct {
	*MySQL
}

func NewTiDBDialect() Dialect {
	return &TiDB{
		MySQL: NewMySQLDialect().(*MySQL),
	}
}

func (t *TiDB) Name() string { return "tidb" }

func (t *TiDB) SupportsLateral() bool {
	return false
}
