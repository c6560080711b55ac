package sqlite

// Demo dataset: students, courses, and grades.
const (
	createStudenti = `DROP TABLE IF EXISTS studenti;
CREATE TABLE studenti (
    id INTEGER PRIMARY KEY,
    ime TEXT,
    prezime TEXT,
    grad TEXT
);`

	insertStudenti = `INSERT INTO studenti VALUES
    (1, 'Marko', 'Marković', 'Beograd'),
    (2, 'Jelena', 'Jovanović', 'Novi Sad'),
    (3, 'Petar', 'Petrović', 'Niš'),
    (4, 'Ana', 'Nikolić', 'Beograd');`

	createPredmeti = `DROP TABLE IF EXISTS predmeti;
CREATE TABLE predmeti (
    id INTEGER,
    naziv TEXT
);`

	insertPredmeti = `INSERT INTO predmeti VALUES
    (101, 'Baze Podataka'),
    (102, 'Programiranje');`

	createOcene = `DROP TABLE IF EXISTS ocene;
CREATE TABLE ocene (
    ucenik_id INTEGER,
    predmet_id INTEGER,
    ocena INTEGER
);`

	insertOcene = `INSERT INTO ocene VALUES
    (1, 101, 9),
    (1, 102, 10),
    (2, 101, 8),
    (4, 102, 9);`
)

// demoDDL lists the demo statements in dependency order.
var demoDDL = []string{
	createStudenti,
	insertStudenti,
	createPredmeti,
	insertPredmeti,
	createOcene,
	insertOcene,
}

// DemoTables lists the tables SeedDemo creates.
var DemoTables = []string{"ocene", "predmeti", "studenti"}
