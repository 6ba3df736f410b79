package store

const schemaSQL = `
CREATE TABLE IF NOT EXISTS transactions (
    position     INTEGER PRIMARY KEY,
    source       TEXT NOT NULL,
    amount       TEXT NOT NULL,
    amount_num   REAL NOT NULL,
    date_utc     TEXT NOT NULL,
    month        TEXT NOT NULL,
    description  TEXT,
    member       TEXT
);

CREATE TABLE IF NOT EXISTS members (
    position     INTEGER PRIMARY KEY,
    name         TEXT NOT NULL,
    title        TEXT NOT NULL,
    contact      TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS sync_state (
    id           INTEGER PRIMARY KEY CHECK (id = 1),
    synced_at    TEXT NOT NULL,
    tx_count     INTEGER NOT NULL,
    member_count INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_transactions_month ON transactions(month);
CREATE INDEX IF NOT EXISTS idx_transactions_source ON transactions(source);
`
